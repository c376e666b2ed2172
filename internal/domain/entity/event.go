package entity

import (
	"encoding/json"
	"net/url"
	"strings"
)

// ObjectRef identifies exactly one object in the source bucket.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// s3Event is the bucket-notification shape S3 and MinIO publish.
type s3Event struct {
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseStorageEvent decodes a notification payload into an ObjectRef.
// Two shapes are recognized: the S3-style Records envelope (only
// ObjectCreated events) and a direct {"bucket","key"} reference as
// published by the reprocess endpoint. A well-formed envelope for some
// other event kind yields ErrEventIgnored; anything unrecognizable is
// rejected with ErrInvalidEventKind.
func ParseStorageEvent(body []byte) (ObjectRef, error) {
	var evt s3Event
	if err := json.Unmarshal(body, &evt); err == nil && len(evt.Records) > 0 {
		rec := evt.Records[0]
		if !strings.Contains(rec.EventName, "ObjectCreated") {
			return ObjectRef{}, ErrEventIgnored
		}
		// Object keys arrive URL-encoded in S3 events.
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			key = rec.S3.Object.Key
		}
		if rec.S3.Bucket.Name == "" || key == "" {
			return ObjectRef{}, ErrInvalidEventKind
		}
		return ObjectRef{Bucket: rec.S3.Bucket.Name, Key: key}, nil
	}

	var ref ObjectRef
	if err := json.Unmarshal(body, &ref); err == nil && ref.Bucket != "" && ref.Key != "" {
		return ref, nil
	}

	return ObjectRef{}, ErrInvalidEventKind
}

// Matches reports whether the object falls under the watched prefix and
// carries one of the accepted suffixes. Empty prefix or suffix list
// disables that half of the filter.
func (o ObjectRef) Matches(prefix string, suffixes []string) bool {
	if prefix != "" && !strings.HasPrefix(o.Key, prefix) {
		return false
	}
	if len(suffixes) == 0 {
		return true
	}
	lower := strings.ToLower(o.Key)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
