package render

import (
	"fmt"

	"lucidia/internal/anim"
)

// Profile selects between the single-image and gallery presentations. Both
// run through the same shaders; only the constants differ.
type Profile struct {
	Name      string
	PanSpeed  float32
	PanAmount float32
	Zoom      float32
	Anim      anim.Params
}

const (
	ProfileSingle  = "single"
	ProfileGallery = "gallery"
)

// SingleProfile is a gentle pan over one image with a static quad.
func SingleProfile() Profile {
	params := anim.DefaultParams()
	params.ViewRotationSpeed = 0
	return Profile{
		Name:      ProfileSingle,
		PanSpeed:  0.1,
		PanAmount: 0.1,
		Zoom:      1,
		Anim:      params,
	}
}

// GalleryProfile pans harder and slowly spins a zoomed quad.
func GalleryProfile() Profile {
	return Profile{
		Name:      ProfileGallery,
		PanSpeed:  0.5,
		PanAmount: 0.2,
		Zoom:      1.5,
		Anim:      anim.DefaultParams(),
	}
}

// ProfileByName looks up a built-in profile.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case ProfileSingle:
		return SingleProfile(), nil
	case ProfileGallery, "":
		return GalleryProfile(), nil
	}
	return Profile{}, fmt.Errorf("unknown profile %q", name)
}
