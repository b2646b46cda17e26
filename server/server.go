// Package server exposes a QueryEngine over HTTP/3, grounded on the
// teacher's cmd/main HTTP/3+QUIC server setup.
package server

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"historykv/historykv"
	"historykv/config"
	"historykv/logs"
)

// Server is the HTTP/3 query front end: one POST endpoint that decodes a
// query request, runs it against the QueryEngine, and returns the rows.
type Server struct {
	cfg    config.ServerConfig
	engine *historykv.QueryEngine

	certFile, keyFile string

	http3Server *http3.Server
	tcpServer   *http.Server
}

// New builds a Server bound to engine, serving on cfg.ListenAddr. certFile
// and keyFile are generated by ListenAndServe if either is absent.
func New(cfg config.ServerConfig, engine *historykv.QueryEngine, certFile, keyFile string) *Server {
	return &Server{cfg: cfg, engine: engine, certFile: certFile, keyFile: keyFile}
}

type queryRequest struct {
	HeadBlock uint32 `json:"head_block"`
	// QueryBin is the base64-encoded wire-format argument stream (§6
	// "Query/result wire format").
	QueryBin string `json:"query_bin"`
}

type queryResponse struct {
	// ResultBin is the base64-encoded length-prefixed row array.
	ResultBin string `json:"result_bin,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBodySize)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	queryBin, err := base64.StdEncoding.DecodeString(req.QueryBin)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("decode query_bin: %v", err))
		return
	}

	resultBin, err := s.engine.Query(queryBin, req.HeadBlock)
	if err != nil {
		writeJSONError(w, statusForErr(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(queryResponse{ResultBin: base64.StdEncoding.EncodeToString(resultBin)})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(queryResponse{Error: msg})
}

func statusForErr(err error) int {
	switch {
	case historykv.IsKind(err, historykv.UnknownQuery), historykv.IsKind(err, historykv.UnknownTable),
		historykv.IsKind(err, historykv.UnknownType):
		return http.StatusNotFound
	case historykv.IsKind(err, historykv.NotImplemented):
		return http.StatusNotImplemented
	case historykv.IsKind(err, historykv.DeserializeError), historykv.IsKind(err, historykv.ResultTooLarge),
		historykv.IsKind(err, historykv.KeyPositionOutOfRange), historykv.IsKind(err, historykv.UnsupportedKeyType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/query", s.handleQuery)
	return mux
}

// ListenAndServe starts the HTTP/3 (QUIC) front end and a parallel TCP/TLS
// listener on the same address, mirroring the teacher's dual-listener setup
// so tools that cannot speak QUIC (e.g. curl without HTTP/3 support) still
// reach the endpoint.
func (s *Server) ListenAndServe() error {
	if err := ensureCert(s.certFile, s.keyFile); err != nil {
		return err
	}

	cert, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
	if err != nil {
		return fmt.Errorf("historykv: load certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
		MaxVersion:   tls.VersionTLS13,
		NextProtos:   []string{"h3", "h3-29", "h3-28", "h3-27", "http/1.1"},
	}

	quicConfig := &quic.Config{
		KeepAlivePeriod: s.cfg.QUICKeepAlivePeriod,
		MaxIdleTimeout:  s.cfg.QUICMaxIdleTimeout,
		Allow0RTT:       s.cfg.QUICAllow0RTT,
	}

	handler := s.mux()

	h3 := &http3.Server{
		Addr:       s.cfg.ListenAddr,
		Handler:    handler,
		TLSConfig:  tlsConfig,
		QUICConfig: quicConfig,
	}
	s.http3Server = h3

	logs.Info("historykv: starting HTTP/3 query server on %s", s.cfg.ListenAddr)

	tcp := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           handler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: s.cfg.HTTPTimeout,
	}
	s.tcpServer = tcp
	go func() {
		if err := tcp.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			logs.Error("historykv: TCP/TLS query server error: %v", err)
		}
	}()

	return h3.ListenAndServe()
}

// Shutdown stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http3Server != nil {
		_ = s.http3Server.Close()
	}
	if s.tcpServer != nil {
		_ = s.tcpServer.Shutdown(ctx)
	}
	return nil
}
