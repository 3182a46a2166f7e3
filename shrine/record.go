// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qingshui/landgods/spatial"
)

// Record sources. Records are created exactly once, either by the
// submission pipeline or by a rescue replay from the photo host.
const (
	SourceUpload = "upload"
	SourceRescue = "rescue"
)

// Record is one accepted shrine submission, the unit of persistence.
type Record struct {
	ID        int64         `json:"id"`
	ImageURL  string        `json:"image_url"`
	Point     spatial.Point `json:"point"`
	Note      string        `json:"note"`
	Nickname  string        `json:"nickname"`
	Area      string        `json:"area"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
}

// DisplayName returns the nickname shown to readers. Anonymous
// submissions share one placeholder so they rank as a single entry.
func (r *Record) DisplayName() string {
	if strings.TrimSpace(r.Nickname) == "" {
		return AnonymousName
	}

	return r.Nickname
}

const (
	maxNoteLen     = 1000
	maxNicknameLen = 100
)

// ErrInvalidRecord tags validation failures so callers can tell a bad
// record apart from a store failure. A record that fails validation will
// fail it forever; retrying is pointless.
var ErrInvalidRecord = errors.New("invalid record")

func validateRecord(r *Record) error {
	if r == nil {
		return fmt.Errorf("%w: record can't be nil", ErrInvalidRecord)
	}

	if strings.TrimSpace(r.ImageURL) == "" {
		return fmt.Errorf("%w: image URL can't be empty", ErrInvalidRecord)
	}

	if !r.Point.InDomain() {
		return fmt.Errorf("%w: coordinates outside the valid domain: %v", ErrInvalidRecord, r.Point)
	}

	if strings.TrimSpace(r.Area) == "" {
		return fmt.Errorf("%w: area can't be empty", ErrInvalidRecord)
	}

	if len(r.Note) > maxNoteLen {
		return fmt.Errorf("%w: note too long (max %d bytes)", ErrInvalidRecord, maxNoteLen)
	}

	if len(r.Nickname) > maxNicknameLen {
		return fmt.Errorf("%w: nickname too long (max %d bytes)", ErrInvalidRecord, maxNicknameLen)
	}

	switch r.Source {
	case SourceUpload, SourceRescue:
	default:
		return fmt.Errorf("%w: unknown record source: %q", ErrInvalidRecord, r.Source)
	}

	return nil
}
