package perf

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

func BenchmarkGenerateToken(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := auth.GenerateToken(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCSRFVerify(b *testing.B) {
	m := shared.NewCSRFManager("bench-secret")
	session, _ := auth.GenerateToken()
	token, _ := m.Token(session)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.VerifyToken(session, token); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBcryptVerify tracks the per-login cost at the configured default.
func BenchmarkBcryptVerify(b *testing.B) {
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	hash, err := hasher.Hash(context.Background(), "correct horse battery")
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if ok, err := hasher.Verify(context.Background(), "correct horse battery", hash); err != nil || !ok {
			b.Fatalf("verify: ok=%v err=%v", ok, err)
		}
	}
}

func TestTokenGenerationStaysCheap(t *testing.T) {
	res := testing.Benchmark(BenchmarkGenerateToken)
	if res.N == 0 {
		t.Skip("benchmark did not run")
	}
	if perOp := res.NsPerOp(); perOp > 1_000_000 {
		t.Fatalf("token generation too slow: %dns/op", perOp)
	}
}
