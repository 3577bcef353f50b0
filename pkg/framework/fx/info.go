package fx

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// ErrInvalidInfo is returned when a plugin publishes unusable metadata.
var ErrInvalidInfo = errors.New("fx: invalid plugin info")

// ReservedTag is applied by the host to its bundled plugins only.
const ReservedTag = "VF"

// namespace seeds the deterministic instance-independent plugin IDs.
var namespace = uuid.MustParse("6f1c2a8e-3b9d-5e47-9a1f-0c8d7e6b5a43")

// Type is a bitfield of the roles a plugin can take.
type Type uint32

const (
	// TypeEffect transforms its input.
	TypeEffect Type = 1 << iota
	// TypeSource renders without an input.
	TypeSource
	// TypeMixer combines bus layers. Only active in bus or output positions.
	TypeMixer
	// TypeEvent produces non-visual output. Not supported by the host.
	TypeEvent
	// TypeAudio needs the audio feed.
	TypeAudio
)

var typeNames = []string{"effect", "source", "mixer", "event", "audio"}

// Has reports whether every bit of f is set.
func (t Type) Has(f Type) bool { return t&f == f && f != 0 }

// String lists the set roles joined by '|'.
func (t Type) String() string {
	var parts []string
	for i, name := range typeNames {
		if t&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// TexReq is a bitfield of special textures the host supplies in BufferA.
type TexReq uint32

const (
	TexNone TexReq = 1 << iota
	TexWhiteNoise
	TexPerlinNoise
	TexBlueNoise
)

// Noise reports whether any noise texture was requested.
func (r TexReq) Noise() bool {
	return r&(TexWhiteNoise|TexPerlinNoise|TexBlueNoise) != 0
}

// Info describes a plugin to the host.
type Info struct {
	Type Type
	// CanonicalName identifies the plugin in saved sessions and presets.
	// It must never change once released.
	CanonicalName string
	Name          string
	Description   string
	Tags          []string
	// Version is a semantic version, e.g. "1.2.0".
	Version string

	SpecialTextures TexReq

	// Set by source plugins.
	FPS         float32
	TotalFrames int64
}

// ID returns a stable identifier derived from the canonical name.
func (i Info) ID() uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(i.CanonicalName))
}

// SemVer parses the version.
func (i Info) SemVer() (*semver.Version, error) {
	return semver.NewVersion(i.Version)
}

// Validate checks the metadata the host relies on.
func (i Info) Validate() error {
	if i.CanonicalName == "" {
		return fmt.Errorf("%w: empty canonical name", ErrInvalidInfo)
	}
	if strings.IndexFunc(i.CanonicalName, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: canonical name %q contains whitespace", ErrInvalidInfo, i.CanonicalName)
	}
	if i.Type == 0 {
		return fmt.Errorf("%w: %s has no type", ErrInvalidInfo, i.CanonicalName)
	}
	if _, err := i.SemVer(); err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrInvalidInfo, i.Version, err)
	}
	for _, tag := range i.Tags {
		if strings.EqualFold(strings.TrimSpace(tag), ReservedTag) {
			return fmt.Errorf("%w: tag %q is reserved", ErrInvalidInfo, ReservedTag)
		}
	}
	return nil
}

// DisplayName returns Name, falling back to the canonical name.
func (i Info) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.CanonicalName
}
