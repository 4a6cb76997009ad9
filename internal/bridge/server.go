package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/kestrelsec/pagewarden/internal/config"
	"github.com/kestrelsec/pagewarden/internal/enforcement"
	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/kestrelsec/pagewarden/internal/urlhandler"
	"github.com/rs/zerolog"
)

// ScanService is the bridge's view of the navigation coordinator.
type ScanService interface {
	HandleNavigation(event models.NavigationEvent)
	DeepScan(ctx context.Context, tabID int, pageURL string, htmlBody string) models.RiskVerdict
	ScanURL(ctx context.Context, url string) models.RiskVerdict
	TabVerdict(tabID int) (models.RiskVerdict, bool)
}

// Server is the local HTTP bridge the browser client talks to. All
// state access from the client goes through request/response messages
// here; the client never shares memory with the daemon.
type Server struct {
	cfg      config.BridgeConfig
	scans    ScanService
	enforcer *enforcement.Enforcer
	hub      *DirectiveHub
	logger   zerolog.Logger
	httpSrv  *http.Server
}

// NewServer wires the bridge endpoints.
func NewServer(cfg config.BridgeConfig, scans ScanService, enforcer *enforcement.Enforcer, hub *DirectiveHub, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		scans:    scans,
		enforcer: enforcer,
		hub:      hub,
		logger:   logger.With().Str("component", "Bridge").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/message", s.handleMessage)
	mux.HandleFunc(cfg.BlockedPagePath, s.handleBlockedPage)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving the bridge until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("Bridge listening")
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, okReply(map[string]string{"status": "ok"}))
}

// handleMessage dispatches the {action, ...} envelope protocol.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonResponse(w, http.StatusMethodNotAllowed, errorReply("method not allowed"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxMessageBodyBytes)
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, errorReply("invalid JSON envelope"))
		return
	}

	switch msg.Action {
	case ActionNavigationEvent:
		s.handleNavigationEvent(w, msg)
	case ActionPhishingPageAnalysis:
		s.handlePhishingPageAnalysis(r.Context(), w, msg)
	case ActionGetTabScanResult:
		s.handleGetTabScanResult(w, msg)
	case ActionScanURL:
		s.handleScanURL(r.Context(), w, msg)
	case ActionBlockSite:
		s.handleBlockSite(w, msg)
	case ActionShowWarning:
		s.handleShowWarning(w, msg)
	case ActionUpdateSettings:
		s.handleUpdateSettings(w, msg)
	case ActionGetSettings:
		s.jsonResponse(w, http.StatusOK, okReply(s.enforcer.Settings()))
	case ActionGetScanHistory:
		s.jsonResponse(w, http.StatusOK, okReply(s.enforcer.History().Entries()))
	case ActionPullDirectives:
		s.handlePullDirectives(w, msg)
	default:
		s.jsonResponse(w, http.StatusBadRequest, errorReply(fmt.Sprintf("unknown action %q", msg.Action)))
	}
}

func (s *Server) handleNavigationEvent(w http.ResponseWriter, msg Message) {
	if msg.URL == "" {
		s.jsonResponse(w, http.StatusBadRequest, errorReply("navigationEvent requires url"))
		return
	}
	s.scans.HandleNavigation(models.NavigationEvent{
		TabID:   msg.TabID,
		URL:     msg.URL,
		FrameID: msg.FrameID,
		Phase:   models.NavigationPhase(msg.Phase),
	})
	s.jsonResponse(w, http.StatusOK, okReply(nil))
}

func (s *Server) handlePhishingPageAnalysis(ctx context.Context, w http.ResponseWriter, msg Message) {
	if msg.URL == "" || msg.HTML == "" {
		s.jsonResponse(w, http.StatusBadRequest, errorReply("phishingPageAnalysis requires url and html"))
		return
	}
	verdict := s.scans.DeepScan(ctx, msg.TabID, msg.URL, msg.HTML)
	s.jsonResponse(w, http.StatusOK, okReply(verdict))
}

func (s *Server) handleGetTabScanResult(w http.ResponseWriter, msg Message) {
	verdict, ok := s.scans.TabVerdict(msg.TabID)
	if !ok {
		s.jsonResponse(w, http.StatusOK, okReply(nil))
		return
	}
	s.jsonResponse(w, http.StatusOK, okReply(verdict))
}

func (s *Server) handleScanURL(ctx context.Context, w http.ResponseWriter, msg Message) {
	if err := urlhandler.ValidateURLFormat(msg.URL); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, errorReply(err.Error()))
		return
	}
	verdict := s.scans.ScanURL(ctx, msg.URL)
	s.jsonResponse(w, http.StatusOK, okReply(verdict))
}

func (s *Server) handleBlockSite(w http.ResponseWriter, msg Message) {
	normalized, err := urlhandler.NormalizeURL(msg.URL)
	if err != nil {
		s.jsonResponse(w, http.StatusBadRequest, errorReply(err.Error()))
		return
	}
	if err := s.enforcer.BlockSite(normalized); err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, errorReply("failed to persist blocked site"))
		return
	}
	s.jsonResponse(w, http.StatusOK, okReply(nil))
}

func (s *Server) handleShowWarning(w http.ResponseWriter, msg Message) {
	if err := s.hub.Notify(msg.TabID, msg.Title, msg.Text); err != nil {
		s.jsonResponse(w, http.StatusOK, errorReply("no live client to warn"))
		return
	}
	s.jsonResponse(w, http.StatusOK, okReply(nil))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, msg Message) {
	if msg.Settings == nil {
		s.jsonResponse(w, http.StatusBadRequest, errorReply("updateSettings requires settings"))
		return
	}
	if err := s.enforcer.UpdateSettings(*msg.Settings); err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, errorReply("failed to persist settings"))
		return
	}
	s.jsonResponse(w, http.StatusOK, okReply(s.enforcer.Settings()))
}

func (s *Server) handlePullDirectives(w http.ResponseWriter, msg Message) {
	tabID := msg.TabID
	if msg.ClientID == "background" {
		tabID = -1
	}
	directives := s.hub.Drain(tabID)
	s.jsonResponse(w, http.StatusOK, okReply(directives))
}

// handleBlockedPage serves the local block target for the redirect
// fallback, echoing the reason from the query string.
func (s *Server) handleBlockedPage(w http.ResponseWriter, r *http.Request) {
	blockedURL := r.URL.Query().Get("url")
	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "This site was classified as dangerous."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Site blocked</title></head>
<body>
<h1>Access blocked by PageWarden</h1>
<p>%s</p>
<p><code>%s</code></p>
</body>
</html>`, html.EscapeString(reason), html.EscapeString(blockedURL))
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, reply Reply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to encode bridge reply")
	}
}
