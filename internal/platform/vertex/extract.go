package vertex

import (
	"encoding/base64"
	"fmt"
)

// extractVideoBytes digs the video payload out of a completed operation
// envelope. The response shape has changed across Veo releases, so the
// known locations are probed in order:
//
//  1. predictions[0].bytesBase64Encoded
//  2. predictions[0].video.bytesBase64Encoded
//  3. videos[0].bytesBase64Encoded
//  4. generatedSamples[0].video.bytesBase64Encoded
//  5. video.bytesBase64Encoded
//
// A raiMediaFilteredCount > 0 means every sample was suppressed by the
// responsible-AI filter; that surfaces as a safety error carrying the first
// filtered reason.
func extractVideoBytes(result map[string]interface{}) ([]byte, error) {
	if count, ok := numberField(result, "raiMediaFilteredCount"); ok && count > 0 {
		reason := "raiMediaFiltered"
		if reasons, ok := result["raiMediaFilteredReasons"].([]interface{}); ok && len(reasons) > 0 {
			if s, ok := reasons[0].(string); ok && s != "" {
				reason = s
			}
		}
		if msg, ok := translateSafetyMessage(reason); ok {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("%s", defaultSafetyMessage)
	}

	if predictions, ok := result["predictions"].([]interface{}); ok && len(predictions) > 0 {
		if prediction, ok := predictions[0].(map[string]interface{}); ok {
			if data, ok := decodeB64Field(prediction, "bytesBase64Encoded"); ok {
				return data, nil
			}
			if video, ok := prediction["video"].(map[string]interface{}); ok {
				if data, ok := decodeB64Field(video, "bytesBase64Encoded"); ok {
					return data, nil
				}
			}
		}
	}

	if videos, ok := result["videos"].([]interface{}); ok && len(videos) > 0 {
		if video, ok := videos[0].(map[string]interface{}); ok {
			if data, ok := decodeB64Field(video, "bytesBase64Encoded"); ok {
				return data, nil
			}
		}
	}

	if samples, ok := result["generatedSamples"].([]interface{}); ok && len(samples) > 0 {
		if sample, ok := samples[0].(map[string]interface{}); ok {
			if video, ok := sample["video"].(map[string]interface{}); ok {
				if data, ok := decodeB64Field(video, "bytesBase64Encoded"); ok {
					return data, nil
				}
			}
		}
	}

	if video, ok := result["video"].(map[string]interface{}); ok {
		if data, ok := decodeB64Field(video, "bytesBase64Encoded"); ok {
			return data, nil
		}
	}

	return nil, fmt.Errorf("could not find video data in operation result")
}

func decodeB64Field(m map[string]interface{}, key string) ([]byte, bool) {
	raw, ok := m[key].(string)
	if !ok || raw == "" {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, false
	}
	return data, true
}

func numberField(m map[string]interface{}, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
