package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Medications *MedicationHandler
	Visits      *VisitHandler
	Vaccines    *VaccineHandler
	Alarms      *AlarmHandler
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})

	if cfg.Medications != nil {
		h := cfg.Medications
		mux.HandleFunc("/medications", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				h.List(w, r)
			case http.MethodPost:
				h.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/medications/", func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := splitResource(r.URL.Path, "/medications/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					h.Get(w, r)
				case http.MethodPut:
					h.Update(w, r)
				case http.MethodDelete:
					h.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "active":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				h.SetActive(w, r)
			case "doses":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				h.RecordDose(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Visits != nil {
		h := cfg.Visits
		mux.HandleFunc("/visits", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				h.List(w, r)
			case http.MethodPost:
				h.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/visits/", func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := splitResource(r.URL.Path, "/visits/")
			if !ok || action != "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				h.Get(w, r)
			case http.MethodPut:
				h.Update(w, r)
			case http.MethodDelete:
				h.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Vaccines != nil {
		h := cfg.Vaccines
		mux.HandleFunc("/vaccines/calendar", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				h.Calendar(w, r)
			case http.MethodPut:
				h.SaveCalendar(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
		mux.HandleFunc("/vaccines/records", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.Records(w, r)
		})
		mux.HandleFunc("/vaccines/records/", func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := splitResource(r.URL.Path, "/vaccines/records/")
			if !ok || action != "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch r.Method {
			case http.MethodPut:
				h.SaveRecord(w, r)
			case http.MethodDelete:
				h.DeleteRecord(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Alarms != nil {
		h := cfg.Alarms
		mux.HandleFunc("/alarms/reconcile", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			h.Reconcile(w, r)
		})
		mux.HandleFunc("/alarms/test", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			h.Test(w, r)
		})
		mux.HandleFunc("/alarms/scheduled", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.Scheduled(w, r)
		})
		mux.HandleFunc("/alarms/preview/", func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := splitResource(r.URL.Path, "/alarms/preview/")
			if !ok || action != "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.Preview(w, r.WithContext(ContextWithResourceID(r.Context(), id)))
		})
		mux.HandleFunc("/debug/logs", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				h.Logs(w, r)
			case http.MethodDelete:
				h.ClearLogs(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

// splitResource parses "{prefix}{id}" or "{prefix}{id}/{action}".
func splitResource(path, prefix string) (id, action string, ok bool) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return "", "", false
	}
	id, action, _ = strings.Cut(rest, "/")
	if strings.Contains(action, "/") {
		return "", "", false
	}
	return id, action, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
