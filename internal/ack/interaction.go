// Package ack carries optimistic mutations to the backend and reports
// whether the backend accepted them.
package ack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"google.golang.org/protobuf/types/known/structpb"
)

// Kind names the mutation being acknowledged.
type Kind string

const (
	KindLike    Kind = "like"
	KindUnlike  Kind = "unlike"
	KindSave    Kind = "save"
	KindUnsave  Kind = "unsave"
	KindComment Kind = "comment"
	KindPost    Kind = "post"
)

func (k Kind) Valid() bool {
	switch k {
	case KindLike, KindUnlike, KindSave, KindUnsave, KindComment, KindPost:
		return true
	}
	return false
}

// Interaction is one optimistic mutation awaiting acknowledgement.
type Interaction struct {
	Kind      Kind
	PostID    string
	ActorID   string
	CommentID string
	Body      string
	At        time.Time
}

func (in Interaction) Validate() error {
	var fields []string
	if !in.Kind.Valid() {
		fields = append(fields, "kind")
	}
	if strings.TrimSpace(in.PostID) == "" {
		fields = append(fields, "postId")
	}
	if strings.TrimSpace(in.ActorID) == "" {
		fields = append(fields, "actorId")
	}
	if in.Kind == KindComment && strings.TrimSpace(in.CommentID) == "" {
		fields = append(fields, "commentId")
	}
	if len(fields) > 0 {
		return common.NewValidationError("malformed interaction", fields...)
	}
	return nil
}

// Acknowledger confirms or denies an Interaction. A nil error confirms it;
// a denial wraps common.ErrRejected and an expired deadline is
// common.ErrTimeout.
type Acknowledger interface {
	Acknowledge(ctx context.Context, in Interaction) error
}

// AcknowledgerFunc adapts a function to Acknowledger.
type AcknowledgerFunc func(ctx context.Context, in Interaction) error

func (f AcknowledgerFunc) Acknowledge(ctx context.Context, in Interaction) error { return f(ctx, in) }

// ToStruct encodes the interaction for the wire.
func (in Interaction) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"kind":      string(in.Kind),
		"postId":    in.PostID,
		"actorId":   in.ActorID,
		"commentId": in.CommentID,
		"body":      in.Body,
		"at":        in.At.UTC().Format(time.RFC3339Nano),
	})
}

// FromStruct decodes an interaction produced by ToStruct.
func FromStruct(s *structpb.Struct) (Interaction, error) {
	if s == nil {
		return Interaction{}, common.NewValidationError("empty interaction")
	}
	f := s.GetFields()
	str := func(key string) string { return f[key].GetStringValue() }

	in := Interaction{
		Kind:      Kind(str("kind")),
		PostID:    str("postId"),
		ActorID:   str("actorId"),
		CommentID: str("commentId"),
		Body:      str("body"),
	}
	if raw := str("at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Interaction{}, fmt.Errorf("%w: bad timestamp %q", common.ErrValidation, raw)
		}
		in.At = at
	}
	return in, nil
}
