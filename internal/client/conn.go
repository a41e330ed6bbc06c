// Package client implements the application's session and plan stores on top of the
// StudyFlow gRPC API.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/and161185/studyflow/internal/api/v1"
	"github.com/and161185/studyflow/internal/config"
)

// bearer attaches the current access token to every call.
type bearer struct {
	mu     sync.RWMutex
	token  string
	secure bool
}

func (b *bearer) set(tok string) {
	b.mu.Lock()
	b.token = tok
	b.mu.Unlock()
}

func (b *bearer) get() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

func (b *bearer) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	tok := b.get()
	if tok == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + tok}, nil
}

func (b *bearer) RequireTransportSecurity() bool { return b.secure }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // dev only
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// Conn is one connection to the backend shared by the session and plan stores.
type Conn struct {
	cc     *grpc.ClientConn
	rpc    pb.StudyFlowClient
	bearer *bearer
}

// Dial connects according to cfg. The connection is established lazily.
func Dial(cfg config.Client, extra ...grpc.DialOption) (*Conn, error) {
	b := &bearer{secure: !cfg.Plaintext}
	var creds credentials.TransportCredentials
	if cfg.Plaintext {
		creds = insecure.NewCredentials()
	} else {
		var err error
		if creds, err = loadTLS(cfg.CACert, cfg.Insecure); err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
	}
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(b),
	}, extra...)
	cc, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Conn{cc: cc, rpc: pb.NewStudyFlowClient(cc), bearer: b}, nil
}

// Close releases the connection.
func (c *Conn) Close() error { return c.cc.Close() }
