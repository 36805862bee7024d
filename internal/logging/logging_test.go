package logging

import "testing"

func TestNewJSONLogger(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewJSONLogger(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewJSONLogger(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if err == nil && logger == nil {
				t.Fatal("NewJSONLogger returned nil logger")
			}
		})
	}
}

func TestWithKeepsWrapper(t *testing.T) {
	logger := NewNop().With("request_id", "abc")
	if logger == nil || logger.SugaredLogger == nil {
		t.Fatal("With returned an empty logger")
	}
	logger.Infow("still usable", "key", "value")
}
