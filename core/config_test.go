package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPairingConfig_Validate(t *testing.T) {
	zero, negative := 0.0, -1.0

	tests := []struct {
		name    string
		conf    PairingConfig
		wantErr string
	}{
		{name: "defaults", conf: PairingConfig{}},
		{name: "zero penalty & jitter", conf: PairingConfig{RepeatPenalty: &zero, Jitter: &zero}},
		{name: "negative attempts", conf: PairingConfig{Attempts: -1}, wantErr: "attempts must not be negative, got -1"},
		{name: "negative penalty", conf: PairingConfig{RepeatPenalty: &negative}, wantErr: "repeat penalty must not be negative, got -1"},
		{name: "negative jitter", conf: PairingConfig{Jitter: &negative}, wantErr: "jitter must not be negative, got -1"},
		{name: "negative lock TTL", conf: PairingConfig{LockTTL: -time.Second}, wantErr: "lock TTL must not be negative, got -1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
