package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"billcal/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.svc == nil {
		checks["ledger"] = "failed: service not configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = map[string]any{
			"revision": s.svc.Revision(),
			"status":   "ok",
		}
	}

	checks["cache"] = map[string]any{
		"view_entries": s.viewCache.Size(),
		"status":       "ok",
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()

	cacheHits := atomic.LoadInt64(&s.appMetrics.cacheHits)
	cacheMisses := atomic.LoadInt64(&s.appMetrics.cacheMisses)
	uptime := time.Since(s.appMetrics.uptime)

	fmt.Fprintf(w, "uptime_seconds %d\n", int64(uptime.Seconds()))
	fmt.Fprintf(w, "http_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(w, "http_response_time_us %d\n", traceMetrics.AverageResponseTime)
	fmt.Fprintf(w, "rate_limit_hits_total %d\n", rateLimitMetrics.TotalHits)
	fmt.Fprintf(w, "rate_limit_active_clients %d\n", rateLimitMetrics.ClientCount)
	fmt.Fprintf(w, "view_cache_entries %d\n", s.viewCache.Size())
	fmt.Fprintf(w, "view_cache_hits_total %d\n", cacheHits)
	fmt.Fprintf(w, "view_cache_misses_total %d\n", cacheMisses)
	fmt.Fprintf(w, "ledger_revision %d\n", s.svc.Revision())
}

// handleCalendar serves one month of calendar days with running balances
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid month %d", month))
		return
	}

	key := fmt.Sprintf("month:%04d-%02d:%d", year, month, s.svc.Revision())
	days := s.cachedView(key, func() []services.CalendarDay {
		return s.svc.MonthView(year, month)
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

// handleRange serves calendar days for an arbitrary date range
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	start, err := parseDateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if end.Before(start.Time) {
		writeError(w, http.StatusBadRequest, "end must not precede start")
		return
	}

	key := fmt.Sprintf("range:%s:%s:%d", start.Key(), end.Key(), s.svc.Revision())
	days := s.cachedView(key, func() []services.CalendarDay {
		return s.svc.RangeView(start, end)
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"start": start,
		"end":   end,
		"days":  days,
	})
}
