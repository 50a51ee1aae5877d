package matchmaking

import (
	"context"
	"maps"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/leomatch/internal/app"
	"github.com/oggyb/leomatch/internal/db"
	svcErr "github.com/oggyb/leomatch/internal/errors"
	"github.com/oggyb/leomatch/internal/flow"
	"github.com/oggyb/leomatch/internal/match"
	"github.com/oggyb/leomatch/internal/profile"
)

const (
	defaultMatchesPageSize = 20
	maxMatchesPageSize     = 100
)

// Service implements the Matchmaking gRPC API for the messaging gateway.
// It translates requests into profile, flow and engine calls; the rules
// themselves live in those packages.
type Service struct {
	appCtx   *app.AppContext
	engine   *match.Engine
	profiles *profile.Service
	flows    *flow.Machine
}

var _ MatchmakingServer = (*Service)(nil)

// NewMatchmakingService creates the service with dependencies from AppContext.
func NewMatchmakingService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		engine:   appCtx.Engine,
		profiles: appCtx.Profiles,
		flows:    flow.NewMachine(),
	}
}

//
// Profiles
//

// RegisterProfile creates a profile on first contact.
//
// Request: {user_id, display_name}. Response: {profile, created}.
func (s *Service) RegisterProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	p, created, err := s.profiles.Register(ctx, userID, stringField(req, "display_name"))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(map[string]any{
		"profile": ownProfile(p, s.profiles.IsComplete(p)),
		"created": created,
	})
}

// GetProfile returns the caller's own profile. Request: {user_id}.
func (s *Service) GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(map[string]any{"profile": ownProfile(p, s.profiles.IsComplete(p))})
}

// UpdateProfile applies the given fields.
//
// Request: {user_id, fields: {city: "lima", ...}}. Unknown field names are rejected.
func (s *Service) UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}

	var u profile.Update
	for name, v := range req.GetFields()["fields"].GetStructValue().GetFields() {
		if err := u.SetField(name, v.GetStringValue()); err != nil {
			return nil, svcErr.Map(err)
		}
	}

	p, err := s.profiles.Update(ctx, userID, u)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(map[string]any{"profile": ownProfile(p, s.profiles.IsComplete(p))})
}

// DeleteProfile clears the caller's profile and ends any active flow.
func (s *Service) DeleteProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Delete(ctx, userID); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Sessions.Delete(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("failed to drop session", "user", userID, "err", err)
	}
	return toStruct(map[string]any{})
}

// TopProfiles ranks profiles by likes received. Request: {limit}.
func (s *Service) TopProfiles(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := intField(req, "limit", 10)
	if err != nil {
		return nil, err
	}
	top, err := s.profiles.Top(ctx, int(limit))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(map[string]any{
		"profiles": list(top, func(p db.Profile) map[string]any {
			card := publicCard(&p)
			card["likes_received"] = p.LikesReceived + p.SuperLikesReceived
			return card
		}),
	})
}

//
// Admin
//

// PurchaseCredits grants super-like credits after the billing side approved
// the purchase. Request: {user_id, count}. Response: {balance}.
func (s *Service) PurchaseCredits(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	count, err := intField(req, "count", 0)
	if err != nil {
		return nil, err
	}
	balance, err := s.engine.PurchaseCredits(ctx, userID, count)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(map[string]any{"balance": balance})
}

// SetPremium flips the premium flag. Request: {user_id, premium}.
func (s *Service) SetPremium(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	if err := s.profiles.SetPremium(ctx, userID, boolField(req, "premium")); err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(map[string]any{})
}

//
// Matching
//

// NextCandidate returns the next candidate after page_token.
//
// Request: {user_id, page_token}. Response: {candidate?, page_token, exhausted}.
// Passing the returned page_token back moves past the shown candidate.
func (s *Service) NextCandidate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	cand, token, err := s.nextCandidate(ctx, userID, stringField(req, "page_token"))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(candidateResponse(cand, token))
}

// Like records a like. Request: {user_id, target_id}.
//
// Response: {status: "pending"|"match", new_match, other?}. The other
// profile's contact is only included once the pair matched.
func (s *Service) Like(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	likerID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	targetID, err := idField(req, "target_id")
	if err != nil {
		return nil, err
	}
	s.appCtx.Logger.Debug("Like called", "liker", likerID, "target", targetID)

	out, err := s.like(ctx, likerID, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(likeResponse(out))
}

// SuperLike spends a credit and reveals the caller's contact to the target.
// Request: {user_id, target_id}. Response: {contact_revealed, repeat, credits_left}.
func (s *Service) SuperLike(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	likerID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	targetID, err := idField(req, "target_id")
	if err != nil {
		return nil, err
	}
	out, err := s.engine.SuperLike(ctx, likerID, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(superLikeResponse(out))
}

// CountLikesReceived returns how many users liked the caller.
// Cache-first strategy:
//  1. Attempts to read from Redis (leomatch:likes:count:userID).
//  2. On a miss, counts in the DB and stores the result with a 1h TTL.
//
// Identities are never listed here; they are revealed through matches only.
func (s *Service) CountLikesReceived(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}

	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, userID); err == nil && ok {
		return toStruct(map[string]any{"count": n})
	} else if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "user", userID, "err", err)
	}

	count, err := s.appCtx.Store.CountLikesReceived(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.SetLikeCount(ctx, userID, count)

	return toStruct(map[string]any{"count": count})
}

// ListMatches returns the caller's matches, newest first, with contacts.
//
// Request: {user_id, page_token, limit}. Response: {matches, next_page_token?}.
func (s *Service) ListMatches(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	limit, err := intField(req, "limit", defaultMatchesPageSize)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxMatchesPageSize {
		limit = defaultMatchesPageSize
	}

	var token *string
	if t := stringField(req, "page_token"); t != "" {
		token = &t
	}

	matches, next, err := s.appCtx.Store.ListMatches(ctx, userID, token, int(limit))
	if err != nil {
		return nil, svcErr.Map(err)
	}

	items := make([]any, 0, len(matches))
	for _, m := range matches {
		other, err := s.profiles.Get(ctx, m.Other(userID))
		if err != nil {
			return nil, svcErr.Map(err)
		}
		card := cardWithContact(other)
		card["matched_at"] = m.CreatedAt.UnixMilli()
		items = append(items, card)
	}

	resp := map[string]any{"matches": items}
	if next != nil {
		resp["next_page_token"] = *next
	}
	return toStruct(resp)
}

//
// Conversation flows
//

// StartFlow opens a registration, profile_edit or browsing flow.
//
// Request: {user_id, flow, display_name}. Registration creates the profile if
// needed; browsing shows the first candidate right away.
func (s *Service) StartFlow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	f := flow.Flow(strings.ToLower(stringField(req, "flow")))

	sess, prompt, err := s.flows.Start(f)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := map[string]any{}
	switch f {
	case flow.Registration:
		if _, _, err := s.profiles.Register(ctx, userID, stringField(req, "display_name")); err != nil {
			return nil, svcErr.Map(err)
		}
	case flow.ProfileEdit:
		if _, err := s.profiles.Get(ctx, userID); err != nil {
			return nil, svcErr.Map(err)
		}
	case flow.Browsing:
		cand, err := s.show(ctx, userID, &sess)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		maps.Copy(resp, candidateResponse(cand, sess.Token))
	}

	if err := s.appCtx.Sessions.Save(ctx, userID, sess); err != nil {
		return nil, svcErr.Map(err)
	}

	resp["flow"] = string(sess.Flow)
	resp["prompt"] = promptResponse(prompt)
	return toStruct(resp)
}

// SubmitInput feeds one message or button press into the caller's active flow.
//
// Request: {user_id, text}. Response: {flow, done, prompt?, profile?,
// like?, super_like?, candidate?, exhausted}. Invalid input leaves the
// flow where it was.
func (s *Service) SubmitInput(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}

	var sess flow.Session
	ok, err := s.appCtx.Sessions.Load(ctx, userID, &sess)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !ok {
		return nil, status.Error(codes.FailedPrecondition, "no active flow, call StartFlow first")
	}

	res, err := s.flows.Advance(sess, stringField(req, "text"))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	sess = res.Session

	resp := map[string]any{"flow": string(sess.Flow), "done": res.Done}

	if res.Update != nil {
		p, err := s.profiles.Update(ctx, userID, *res.Update)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		resp["profile"] = ownProfile(p, s.profiles.IsComplete(p))
	}

	switch res.Action {
	case flow.ActionLike:
		out, err := s.like(ctx, userID, sess.CandidateID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		resp["like"] = likeResponse(out)
	case flow.ActionSuperLike:
		out, err := s.engine.SuperLike(ctx, userID, sess.CandidateID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		resp["super_like"] = superLikeResponse(out)
	}

	if sess.Flow == flow.Browsing && !res.Done {
		cand, err := s.show(ctx, userID, &sess)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		maps.Copy(resp, candidateResponse(cand, sess.Token))
	}

	if res.Done {
		err = s.appCtx.Sessions.Delete(ctx, userID)
	} else {
		err = s.appCtx.Sessions.Save(ctx, userID, sess)
		resp["prompt"] = promptResponse(res.Prompt)
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toStruct(resp)
}

//
// Helpers
//

// like runs the engine and keeps the cached received-likes count in step.
func (s *Service) like(ctx context.Context, likerID, targetID uint64) (match.MatchOutcome, error) {
	out, err := s.engine.Like(ctx, likerID, targetID)
	if err != nil {
		return out, err
	}
	if out.Recorded {
		_ = s.appCtx.RedisCache.IncrLikeCount(ctx, targetID)
	}
	return out, nil
}

func (s *Service) nextCandidate(ctx context.Context, userID uint64, token string) (*db.Profile, string, error) {
	cands, err := s.engine.ResumeCandidates(ctx, userID, token)
	if err != nil {
		return nil, "", err
	}
	p, err := cands.Next(ctx)
	if err != nil {
		return nil, "", err
	}
	next, err := cands.Token()
	if err != nil {
		return nil, "", err
	}
	return p, next, nil
}

// show moves the browsing session to the next candidate.
func (s *Service) show(ctx context.Context, userID uint64, sess *flow.Session) (*db.Profile, error) {
	p, token, err := s.nextCandidate(ctx, userID, sess.Token)
	if err != nil {
		return nil, err
	}
	if p == nil {
		sess.Show(0, sess.Token)
		return nil, nil
	}
	sess.Show(p.ID, token)
	return p, nil
}

func candidateResponse(p *db.Profile, token string) map[string]any {
	resp := map[string]any{"exhausted": p == nil, "page_token": token}
	if p != nil {
		resp["candidate"] = publicCard(p)
	}
	return resp
}

func likeResponse(out match.MatchOutcome) map[string]any {
	resp := map[string]any{
		"status":    string(out.Status),
		"new_match": out.NewMatch,
	}
	if out.Status == match.StatusMatch {
		resp["other"] = cardWithContact(out.Other)
	}
	return resp
}

func superLikeResponse(out match.SuperLikeOutcome) map[string]any {
	return map[string]any{
		"contact_revealed": out.ContactRevealed,
		"repeat":           out.Repeat,
		"credits_left":     out.CreditsLeft,
		"target_id":        formatID(out.Target.ID),
	}
}

func promptResponse(p flow.Prompt) map[string]any {
	return map[string]any{
		"step":     string(p.Step),
		"field":    p.Field,
		"options":  anyStrings(p.Options),
		"optional": p.Optional,
	}
}
