package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/api"
	"github.com/dgnsrekt/incidentsync/internal/api/generated"
	"github.com/dgnsrekt/incidentsync/internal/cache"
	"github.com/dgnsrekt/incidentsync/internal/collect"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/events"
	"github.com/dgnsrekt/incidentsync/internal/live"
)

// Deps are the long-lived services the status surface observes.
type Deps struct {
	Channel   *live.Channel
	Dedup     *events.Deduplicator
	Sink      *events.Sink
	Cache     *cache.Cache
	Budget    *cache.BudgetMonitor
	Collector *collect.Collector
	Collect   collect.Config
}

type Server struct {
	deps      Deps
	relay     *Relay
	control   *Controller
	logger    *zap.Logger
	startedAt time.Time
}

func NewServer(deps Deps, relay *Relay, logger *zap.Logger) *Server {
	return &Server{
		deps:      deps,
		relay:     relay,
		control:   NewController(deps.Channel, deps.Cache, logger),
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Compile-time interface verification
var _ generated.StrictServerInterface = (*Server)(nil)

// GetHealth implements generated.StrictServerInterface
func (s *Server) GetHealth(ctx context.Context, request generated.GetHealthRequestObject) (generated.GetHealthResponseObject, error) {
	return generated.GetHealth200JSONResponse{Status: "ok"}, nil
}

// GetStatus implements generated.StrictServerInterface
func (s *Server) GetStatus(ctx context.Context, request generated.GetStatusRequestObject) (generated.GetStatusResponseObject, error) {
	resp := generated.GetStatus200JSONResponse{
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	}
	if s.relay != nil {
		resp.Subscribers = s.relay.ClientCount()
	}
	if s.deps.Channel != nil {
		resp.Channel = channelState(s.deps.Channel.State())
	}
	if s.deps.Dedup != nil {
		resp.Cursor = cursor(s.deps.Dedup.Cursor())
	}
	if s.deps.Sink != nil {
		resp.Unseen = s.deps.Sink.Unseen()
		resp.Notifications = len(s.deps.Sink.List())
	}
	if s.deps.Cache != nil {
		resp.Cache = &map[string]int{
			string(cache.Volatile):  s.deps.Cache.Len(cache.Volatile),
			string(cache.Reference): s.deps.Cache.Len(cache.Reference),
		}
	}
	return resp, nil
}

// ListNotifications implements generated.StrictServerInterface. The list is
// newest first; unseen keeps only unseen entries and limit truncates.
func (s *Server) ListNotifications(ctx context.Context, request generated.ListNotificationsRequestObject) (generated.ListNotificationsResponseObject, error) {
	list := s.deps.Sink.List()

	out := make([]generated.Notification, 0, len(list))
	for _, n := range list {
		if request.Params.Unseen != nil && *request.Params.Unseen && n.Seen {
			continue
		}
		out = append(out, notification(n))
	}
	if limit := request.Params.Limit; limit != nil && *limit >= 0 && *limit < len(out) {
		out = out[:*limit]
	}

	return generated.ListNotifications200JSONResponse{
		Unseen:        s.deps.Sink.Unseen(),
		Notifications: out,
	}, nil
}

// MarkNotificationsSeen implements generated.StrictServerInterface
func (s *Server) MarkNotificationsSeen(ctx context.Context, request generated.MarkNotificationsSeenRequestObject) (generated.MarkNotificationsSeenResponseObject, error) {
	s.deps.Sink.MarkAllSeen()
	s.logger.Debug("notifications marked seen")
	return generated.MarkNotificationsSeen200JSONResponse{Unseen: 0}, nil
}

// ConnectChannel implements generated.StrictServerInterface
func (s *Server) ConnectChannel(ctx context.Context, request generated.ConnectChannelRequestObject) (generated.ConnectChannelResponseObject, error) {
	state, err := s.control.Reconnect(ctx)
	if errors.Is(err, ErrBusy) {
		return generated.ConnectChannel409JSONResponse{Error: err.Error()}, nil
	}
	if err != nil {
		return generated.ConnectChannel503JSONResponse{Error: err.Error()}, nil
	}
	return generated.ConnectChannel202JSONResponse(channelState(state)), nil
}

// CollectResource implements generated.StrictServerInterface. Query
// parameters other than class are passed through as resource filters.
func (s *Server) CollectResource(ctx context.Context, request generated.CollectResourceRequestObject) (generated.CollectResourceResponseObject, error) {
	if s.deps.Cache == nil || s.deps.Collector == nil {
		return generated.CollectResource503JSONResponse{Error: "collection is not configured"}, nil
	}

	class := cache.Volatile
	if request.Params.Class != nil {
		class = cache.Class(*request.Params.Class)
	}
	q := data.NewQuery(request.Resource, filters(ctx, "class"))

	run, err := s.deps.Cache.Collect(ctx, class, s.deps.Collector, q, s.deps.Collect)
	if err != nil {
		s.logger.Warn("collection failed",
			zap.String("query", q.Key()),
			zap.String("class", string(class)),
			zap.Error(err),
		)
		failure := generated.CollectionFailure{Error: err.Error()}
		if run != nil {
			c := s.collection(request.Resource, run)
			failure.Collection = &c
		}
		switch errorStatus(err) {
		case http.StatusBadRequest:
			return generated.CollectResource400JSONResponse(failure), nil
		case http.StatusNotFound:
			return generated.CollectResource404JSONResponse(failure), nil
		case http.StatusBadGateway:
			return generated.CollectResource502JSONResponse(failure), nil
		default:
			return generated.CollectResource503JSONResponse(failure), nil
		}
	}

	return generated.CollectResource200JSONResponse(s.collection(request.Resource, run)), nil
}

// InvalidateCache implements generated.StrictServerInterface
func (s *Server) InvalidateCache(ctx context.Context, request generated.InvalidateCacheRequestObject) (generated.InvalidateCacheResponseObject, error) {
	var q *data.Query
	if request.Params.Resource != nil && *request.Params.Resource != "" {
		nq := data.NewQuery(*request.Params.Resource, filters(ctx, "class", "resource"))
		q = &nq
	}

	removed, err := s.control.Invalidate(cache.Class(request.Params.Class), q)
	if err != nil {
		return generated.InvalidateCache400JSONResponse{Error: err.Error()}, nil
	}
	return generated.InvalidateCache200JSONResponse{Removed: removed}, nil
}

func (s *Server) collection(resource string, run *collect.Run) generated.Collection {
	items := make([]map[string]interface{}, len(run.Items))
	for i, item := range run.Items {
		items[i] = item
	}

	c := generated.Collection{
		Resource:      resource,
		Query:         run.Query.Key(),
		StoppedReason: generated.CollectionStoppedReason(run.StoppedReason),
		Partial:       run.Partial(),
		TotalCount:    run.TotalCount,
		Remaining:     run.Remaining(),
		PagesFetched:  run.PagesFetched,
		Items:         items,
	}
	if s.deps.Budget != nil {
		size, level := s.deps.Budget.Check(run)
		budgetLevel := generated.BudgetLevel(level.String())
		c.SizeBytes, c.BudgetLevel = &size, &budgetLevel
	}
	return c
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, cache.ErrUnknownClass):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case api.IsFatal(err):
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

type queryKey struct{}

// withQuery exposes the raw query string to strict handlers, which only
// receive declared parameters.
func withQuery(f generated.StrictHandlerFunc, operationID string) generated.StrictHandlerFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request, request interface{}) (interface{}, error) {
		return f(context.WithValue(ctx, queryKey{}, r.URL.Query()), w, r, request)
	}
}

// filters returns the first value of every query parameter not in reserved.
func filters(ctx context.Context, reserved ...string) map[string]string {
	values, _ := ctx.Value(queryKey{}).(url.Values)
	out := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) == 0 || contains(reserved, k) {
			continue
		}
		out[k] = vs[0]
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func channelState(st live.State) generated.ChannelState {
	out := generated.ChannelState{
		Phase:     generated.ChannelStatePhase(st.Phase.String()),
		Transport: string(st.Transport),
		Since:     st.Since,
	}
	if st.Attempt > 0 {
		out.Attempt = ptr(st.Attempt)
	}
	if st.LastError != "" {
		out.LastError = ptr(st.LastError)
	}
	if st.Delay > 0 {
		out.Delay = ptr(st.Delay.String())
	}
	return out
}

func cursor(c events.Cursor) generated.Cursor {
	out := generated.Cursor{Initialized: c.Initialized, LastSeenId: c.LastSeenID}
	if !c.LastSeenAt.IsZero() {
		out.LastSeenAt = ptr(c.LastSeenAt)
	}
	return out
}

func notification(n events.Notification) generated.Notification {
	ev := generated.Event{Id: n.Event.ID, Payload: n.Event.Payload}
	if ev.Payload == nil {
		ev.Payload = map[string]interface{}{}
	}
	if !n.Event.CreatedAt.IsZero() {
		ev.CreatedAt = ptr(n.Event.CreatedAt)
	}
	return generated.Notification{Event: ev, Seen: n.Seen, ReceivedAt: n.ReceivedAt}
}

func ptr[T any](v T) *T {
	return &v
}
