package converter

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func LoadGLTF(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// FindChannel returns the channel of a targeting node along path.
func FindChannel(a *gltf.Animation, node uint32, path gltf.TRSProperty) *gltf.Channel {
	for _, ch := range a.Channels {
		if ch.Target.Node != nil && *ch.Target.Node == node && ch.Target.Path == path {
			return ch
		}
	}
	return nil
}

func samplerOutput(doc *gltf.Document, a *gltf.Animation, ch *gltf.Channel) (*gltf.Accessor, error) {
	if ch.Sampler == nil || int(*ch.Sampler) >= len(a.Samplers) {
		return nil, fmt.Errorf("gltf: channel has no sampler")
	}
	s := a.Samplers[*ch.Sampler]
	if s.Output == nil || int(*s.Output) >= len(doc.Accessors) {
		return nil, fmt.Errorf("gltf: sampler has no output accessor")
	}
	return doc.Accessors[*s.Output], nil
}

// ReadRotations decodes the quaternion keyframes of a rotation channel.
func ReadRotations(doc *gltf.Document, a *gltf.Animation, ch *gltf.Channel) ([][4]float32, error) {
	acr, err := samplerOutput(doc, a, ch)
	if err != nil {
		return nil, err
	}
	return modeler.ReadTangent(doc, acr, nil)
}

// ReadTranslations decodes the keyframes of a translation channel.
func ReadTranslations(doc *gltf.Document, a *gltf.Animation, ch *gltf.Channel) ([][3]float32, error) {
	acr, err := samplerOutput(doc, a, ch)
	if err != nil {
		return nil, err
	}
	return modeler.ReadPosition(doc, acr, nil)
}
