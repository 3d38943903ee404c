package types

import (
	"fmt"
)

// Provider option bags. All fields are optional; any set field makes the
// submission bypass the result cache.

type ImageOptions struct {
	AspectRatio       *string  `json:"aspect_ratio,omitempty"`
	NegativePrompt    *string  `json:"negative_prompt,omitempty"`
	Seed              *int64   `json:"seed,omitempty"`
	GuidanceScale     *float64 `json:"guidance_scale,omitempty"`
	SafetyFilterLevel *string  `json:"safety_filter_level,omitempty"`
	AddWatermark      *bool    `json:"add_watermark,omitempty"`
	Language          *string  `json:"language,omitempty"`
}

func (o *ImageOptions) HasValues() bool {
	if o == nil {
		return false
	}
	return o.AspectRatio != nil || o.NegativePrompt != nil || o.Seed != nil ||
		o.GuidanceScale != nil || o.SafetyFilterLevel != nil ||
		o.AddWatermark != nil || o.Language != nil
}

var imageAspectRatios = map[string]bool{
	"1:1": true, "3:4": true, "4:3": true, "16:9": true, "9:16": true,
}

var safetyFilterLevels = map[string]bool{
	"block_low_and_above":    true,
	"block_medium_and_above": true,
	"block_only_high":        true,
}

var imageLanguages = map[string]bool{
	"auto": true, "en": true, "ko": true, "ja": true, "zh": true,
	"zh-CN": true, "zh-TW": true, "hi": true, "pt": true, "es": true,
}

func (o *ImageOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.AspectRatio != nil && !imageAspectRatios[*o.AspectRatio] {
		return fmt.Errorf("aspect_ratio must be one of 1:1, 3:4, 4:3, 16:9, 9:16")
	}
	if o.Seed != nil && (*o.Seed < 1 || *o.Seed > 1<<31-1) {
		return fmt.Errorf("seed must be in [1, 2^31-1]")
	}
	if o.GuidanceScale != nil && (*o.GuidanceScale < 0 || *o.GuidanceScale > 100) {
		return fmt.Errorf("guidance_scale must be in [0, 100]")
	}
	if o.SafetyFilterLevel != nil && !safetyFilterLevels[*o.SafetyFilterLevel] {
		return fmt.Errorf("invalid safety_filter_level")
	}
	if o.Language != nil && !imageLanguages[*o.Language] {
		return fmt.Errorf("invalid language")
	}
	// Imagen rejects watermarked output for seeded generations.
	if o.Seed != nil && o.AddWatermark != nil && *o.AddWatermark {
		return fmt.Errorf("add_watermark must be false when seed is set")
	}
	return nil
}

type VideoOptions struct {
	AspectRatio     *string `json:"aspect_ratio,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	NegativePrompt  *string `json:"negative_prompt,omitempty"`
	Seed            *int64  `json:"seed,omitempty"`
	GenerateAudio   *bool   `json:"generate_audio,omitempty"`
	Resolution      *string `json:"resolution,omitempty"`
}

func (o *VideoOptions) HasValues() bool {
	if o == nil {
		return false
	}
	return o.AspectRatio != nil || o.DurationSeconds != nil ||
		o.NegativePrompt != nil || o.Seed != nil ||
		o.GenerateAudio != nil || o.Resolution != nil
}

func (o *VideoOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.AspectRatio != nil && *o.AspectRatio != "16:9" && *o.AspectRatio != "9:16" {
		return fmt.Errorf("aspect_ratio must be 16:9 or 9:16")
	}
	if o.DurationSeconds != nil {
		switch *o.DurationSeconds {
		case 4, 6, 8:
		default:
			return fmt.Errorf("duration_seconds must be 4, 6 or 8")
		}
	}
	if o.Seed != nil && (*o.Seed < 0 || *o.Seed > 1<<32-1) {
		return fmt.Errorf("seed must be in [0, 2^32-1]")
	}
	if o.Resolution != nil && *o.Resolution != "720p" && *o.Resolution != "1080p" {
		return fmt.Errorf("resolution must be 720p or 1080p")
	}
	return nil
}
