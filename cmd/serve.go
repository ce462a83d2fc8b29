package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sheet-doctor/internal/heal"
	"github.com/sells-group/sheet-doctor/internal/loader"
	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/semantic"
	"github.com/sells-group/sheet-doctor/internal/store"
	"github.com/sells-group/sheet-doctor/internal/writer"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP healing service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		api := &server{
			store: st,
			base: heal.Options{
				PreviewRows:    cfg.Heal.PreviewRows,
				SkipExtrasRows: cfg.Limits.SkipExtrasRows,
				Limits:         cfg.Limits.Loader(),
			},
			maxUpload: int64(cfg.Server.MaxUploadMB) << 20,
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(api, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 15 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("serve: shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("serve: starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "serve: listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// server holds the dependencies of the HTTP handlers.
type server struct {
	store     store.Store // may be nil; run endpoints then answer 503
	base      heal.Options
	maxUpload int64
	tempDir   string
}

// newRouter wires the service routes behind CORS and the chi middleware.
func newRouter(s *server, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/heal", s.handleHeal)
		r.Post("/inspect", s.handleInspect)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

// healResponse is the body of a successful POST /v1/heal.
type healResponse struct {
	Report     writer.Report `json:"report"`
	Clean      [][]string    `json:"clean"`
	Quarantine [][]string    `json:"quarantine"`
	Changelog  [][]string    `json:"changelog"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleHeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	path, name, cleanup, opts, ok := s.receive(w, r)
	if !ok {
		return
	}
	defer cleanup()

	var run *model.Run
	if s.store != nil {
		created, err := s.store.CreateRun(ctx, name)
		if err != nil {
			zap.L().Error("serve: create run", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not record run")
			return
		}
		run = created
	}

	res, err := heal.Heal(path, opts)
	if err != nil {
		if run != nil {
			_ = s.store.FailRun(ctx, run.ID, err.Error())
		}
		writeLoadError(w, err)
		return
	}
	res.Source.Path = name
	if run != nil {
		res.RunID = run.ID
		res.Record(run)
		if err := s.store.CompleteRun(ctx, run); err != nil {
			zap.L().Warn("serve: record run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, healResponse{
		Report:     writer.NewReport(res),
		Clean:      writer.CleanTable(res.Headers, res.Clean),
		Quarantine: writer.QuarantineTable(res.Headers, res.Quarantine),
		Changelog:  writer.ChangelogTable(res.Changelog.Entries()),
	})
}

func (s *server) handleInspect(w http.ResponseWriter, r *http.Request) {
	path, _, cleanup, opts, ok := s.receive(w, r)
	if !ok {
		return
	}
	defer cleanup()

	in, err := heal.Inspect(path, opts)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Input:  q.Get("input"),
	}
	var err error
	if filter.Limit, err = queryInt(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("serve: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("serve: get run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// receive stores the uploaded "file" part in a temp file that keeps the
// upload's extension and reads the heal options from the other form fields.
// On failure it has already written the response.
func (s *server) receive(w http.ResponseWriter, r *http.Request) (string, string, func(), heal.Options, bool) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return "", "", noop, heal.Options{}, false
	}

	opts, err := s.formOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", "", noop, heal.Options{}, false
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return "", "", noop, heal.Options{}, false
	}
	defer file.Close() //nolint:errcheck

	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	tmp, err := os.CreateTemp(s.tempDir, "sheet-doctor-upload-*"+ext)
	if err != nil {
		zap.L().Error("serve: create temp file", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return "", "", noop, heal.Options{}, false
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	_, err = io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		zap.L().Error("serve: save upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return "", "", noop, heal.Options{}, false
	}

	name := filepath.Base(hdr.Filename)
	zap.L().Debug("serve: upload received", zap.String("file", name), zap.Int64("bytes", hdr.Size))
	return tmp.Name(), name, cleanup, opts, true
}

// formOptions applies the sheet, consolidate, header_row and role fields to
// the server's base options.
func (s *server) formOptions(r *http.Request) (heal.Options, error) {
	opts := s.base
	opts.Sheet = r.FormValue("sheet")

	if v := r.FormValue("consolidate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, eris.New("consolidate must be a boolean")
		}
		opts.Consolidate = b
	}

	n, err := queryInt(r.FormValue("header_row"))
	if err != nil || n < 0 {
		return opts, eris.New("header_row must be a non-negative integer")
	}
	opts.HeaderRow = n

	if r.MultipartForm != nil {
		for _, v := range r.MultipartForm.Value["role"] {
			key, role, err := semantic.ParseOverride(v)
			if err != nil {
				return opts, eris.Errorf("invalid role %q", v)
			}
			opts.Overrides = opts.Overrides.Merge(semantic.Overrides{key: role})
		}
	}
	return opts, nil
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// writeLoadError answers with the status matching err's loader kind.
func writeLoadError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch loader.KindOf(err) {
	case loader.KindNotFound:
		status = http.StatusNotFound
	case loader.KindEmptyInput, loader.KindAmbiguousSelection, loader.KindUnreadableContainer:
		status = http.StatusUnprocessableEntity
	case loader.KindTooLarge:
		status = http.StatusRequestEntityTooLarge
	case loader.KindUnsupported:
		status = http.StatusUnsupportedMediaType
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("serve: heal failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(loader.KindOf(err)),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
