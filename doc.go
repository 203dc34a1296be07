// Package atlas builds a texture atlas from an animation's keyframes.
//
// # Overview
//
// A build reads a config file naming keyframe images, optional timeline
// indices and optional per-keyframe alpha multipliers. Keyframes are loaded
// in order, their alpha is rescaled, and any gap between two indexed
// keyframes is filled with linearly blended frames. The complete sequence
// is then laid out on one atlas image and written to disk.
//
// # Quick Start
//
//	res, err := atlas.Build("atlas.cfg")
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Frames, "frames packed into", res.Output)
//
// The atlasgen command wraps the same call.
//
// # Config
//
// The flat key/value format reads like this:
//
//	InputImage = walk0.png;walk1.png;walk2.png
//	Frame      = 0;4;8
//	Alpha      = 1;0.5
//	OutputImage = walk.png
//	ImagePath  = frames
//
// Here walk0 and walk1 are four frames apart, so three blended frames are
// inserted between them, and the atlas holds nine frames in all.
//
// # Outputs
//
// Besides the atlas image the build can write placement metadata as JSON
// (one region per frame, with pixel bounds and UVs) and an animated GIF
// preview of the expanded sequence. Outputs are staged in temporary files
// and renamed into place together, so a failed build leaves none of them.
package atlas
