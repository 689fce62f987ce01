package flagx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var (
	configOnly = []string{"-c", "-config"}
	serverSet  = []string{"-a", "-d", "-s", "-l", "-v"}
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"config path split from flag", []string{"-c", "cribfeed.json", "-b", "memory"}, configOnly, []string{"-c", "cribfeed.json"}},
		{"config path joined with equals", []string{"-config=alt.json", "-m", "grpc"}, configOnly, []string{"-config=alt.json"}},
		{"order is kept", []string{"-config=a.json", "-c", "b.json", "-demo"}, configOnly, []string{"-config=a.json", "-c", "b.json"}},
		{"client flags dropped for server", []string{"-b", "postgres", "-a", ":50051", "-demo=false", "-v"}, serverSet, []string{"-a", ":50051", "-v"}},
		{"dsn with equals inside value", []string{"-d=postgres://u:p@h/db?sslmode=disable"}, serverSet, []string{"-d=postgres://u:p@h/db?sslmode=disable"}},
		{"trailing flag without value", []string{"-c"}, configOnly, []string{"-c"}},
		{"dash token is never a value", []string{"-c", "-config=x.json"}, configOnly, []string{"-c", "-config=x.json"}},
		{"unknown only", []string{"-x", "1", "--y=2", "word"}, configOnly, []string{}},
		{"no args", nil, serverSet, []string{}},
		{"repeated flag", []string{"-l", "zap", "-l", "text"}, serverSet, []string{"-l", "zap", "-l", "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("FilterArgs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/etc/cribfeed/client.json"}, "/etc/cribfeed/client.json"},
		{"long among client flags", []string{"-s", "", "-config=server.json", "-v"}, "server.json"},
		{"last one wins", []string{"-c", "1.json", "-config", "2.json"}, "2.json"},
		{"absent", []string{"-b", "memory", "-demo"}, ""},
		{"missing value", []string{"-c"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}
