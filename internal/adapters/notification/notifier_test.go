package notification

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xvierd/tally/internal/config"
)

type sent struct {
	kind, title, message string
}

func newRecording(cfg *config.NotificationConfig, log *[]sent) *Notifier {
	n := New(cfg)
	n.notify = func(title, message string, _ any) error {
		*log = append(*log, sent{"notify", title, message})
		return nil
	}
	n.alert = func(title, message string, _ any) error {
		*log = append(*log, sent{"alert", title, message})
		return nil
	}
	return n
}

func TestNotifier_Notify(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.NotificationConfig
		want []sent
	}{
		{"nil config", nil, nil},
		{"disabled", &config.NotificationConfig{Enabled: false, Sound: true}, nil},
		{"silent", &config.NotificationConfig{Enabled: true}, []sent{{"notify", "Task done", "Write docs"}}},
		{"with sound", &config.NotificationConfig{Enabled: true, Sound: true}, []sent{{"alert", "Task done", "Write docs"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []sent
			n := newRecording(tt.cfg, &log)
			assert.NoError(t, n.Notify("Task done", "Write docs"))
			assert.Equal(t, tt.want, log)
			assert.Equal(t, tt.want != nil, n.IsEnabled())
		})
	}
}

func TestNotifier_PropagatesErrors(t *testing.T) {
	n := New(&config.NotificationConfig{Enabled: true})
	n.notify = func(string, string, any) error { return errors.New("no dbus") }
	assert.EqualError(t, n.Notify("t", "m"), "no dbus")
}
