package odontogram

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// Face is a dental surface.
type Face string

const (
	FaceOcclusal   Face = "O"
	FaceMesial     Face = "M"
	FaceDistal     Face = "D"
	FaceVestibular Face = "V"
	FaceLingual    Face = "L"
	FaceCervical   Face = "C"
)

// Valid reports whether f is a known face.
func (f Face) Valid() bool {
	switch f {
	case FaceOcclusal, FaceMesial, FaceDistal, FaceVestibular, FaceLingual, FaceCervical:
		return true
	}
	return false
}

// decodeStrict decodes raw into a T and rejects fields T does not declare.
// An empty or null payload yields the zero T.
func decodeStrict[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

func cloneFaces(f []Face) []Face {
	if f == nil {
		return nil
	}
	return slices.Clone(f)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func validFaces(faces []Face) bool {
	for _, f := range faces {
		if !f.Valid() {
			return false
		}
	}
	return true
}
