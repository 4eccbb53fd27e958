package internal

import (
	"reflect"
	"strconv"
	"strings"
)

// Tag is a parsed `relish:"<id>[,optional][,omitempty]"` struct tag.
type Tag struct {
	ID        int
	Optional  bool
	OmitEmpty bool
}

// ParseTag parses the relish tag of f. ok is false for untagged fields,
// `relish:"-"`, and ids outside [0, 127].
func ParseTag(f reflect.StructField) (Tag, bool) {
	tag := f.Tag.Get("relish")
	if tag == "" || tag == "-" {
		return Tag{}, false
	}
	parts := strings.Split(tag, ",")
	id64, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || id64 < 0 || id64 >= int64(Reserved) {
		return Tag{}, false
	}
	t := Tag{ID: int(id64)}
	for _, p := range parts[1:] {
		switch strings.TrimSpace(p) {
		case "optional":
			t.Optional = true
		case "omitempty":
			t.OmitEmpty = true
		}
	}
	return t, true
}
