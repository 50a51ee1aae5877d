package matchmaking

import (
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/leomatch/internal/db"
	svcErr "github.com/oggyb/leomatch/internal/errors"
)

// idField reads a user id sent either as a decimal string or a number.
func idField(req *structpb.Struct, key string) (uint64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, svcErr.InvalidArgument(key + " is required")
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		id, err := strconv.ParseUint(kind.StringValue, 10, 64)
		if err != nil || id == 0 {
			return 0, svcErr.InvalidArgument(key + " must be a valid uint64")
		}
		return id, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n < 1 || n != math.Trunc(n) || n > math.MaxInt64 {
			return 0, svcErr.InvalidArgument(key + " must be a valid uint64")
		}
		return uint64(n), nil
	}
	return 0, svcErr.InvalidArgument(key + " must be a string or number")
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func boolField(req *structpb.Struct, key string) bool {
	return req.GetFields()[key].GetBoolValue()
}

// intField reads an integer, falling back to def when absent.
func intField(req *structpb.Struct, key string, def int64) (int64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return def, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if kind.NumberValue != math.Trunc(kind.NumberValue) {
			return 0, svcErr.InvalidArgument(key + " must be an integer")
		}
		return int64(kind.NumberValue), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, svcErr.InvalidArgument(key + " must be an integer")
		}
		return n, nil
	}
	return 0, svcErr.InvalidArgument(key + " must be an integer")
}

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }

// publicCard is what other users may see. Contact is added only where the
// privacy rules allow it (matches and super-likes).
func publicCard(p *db.Profile) map[string]any {
	return map[string]any{
		"user_id":      formatID(p.ID),
		"display_name": p.DisplayName,
		"photo_ref":    p.PhotoRef,
		"description":  p.Description,
		"gender":       p.Gender,
		"country":      p.Country,
		"city":         p.City,
	}
}

func cardWithContact(p *db.Profile) map[string]any {
	card := publicCard(p)
	card["contact"] = p.Contact
	return card
}

// ownProfile is the full view a user gets of their own profile.
func ownProfile(p *db.Profile, complete bool) map[string]any {
	out := cardWithContact(p)
	out["preferred_gender"] = p.PreferredGender
	out["premium"] = p.Premium
	out["super_like_credits"] = p.SuperLikeCredits
	out["likes_received"] = p.LikesReceived
	out["super_likes_received"] = p.SuperLikesReceived
	out["complete"] = complete
	return out
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return s, nil
}

func list[T any](items []T, conv func(T) map[string]any) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, conv(it))
	}
	return out
}

func anyStrings(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
