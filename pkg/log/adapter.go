package log

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// BadgerAdapter implements badger.Logger on top of a logrus entry.
// Badger's own info chatter (compactions, value log GC) is demoted to debug.
type BadgerAdapter struct {
	*logrus.Entry
}

// NewBadgerAdapter tags every badger line with component=badger
func NewBadgerAdapter(entry *logrus.Entry) *BadgerAdapter {
	return &BadgerAdapter{entry.WithField("component", "badger")}
}

func (l *BadgerAdapter) Errorf(f string, v ...interface{})   { l.Entry.Errorf(trimNL(f), v...) }
func (l *BadgerAdapter) Warningf(f string, v ...interface{}) { l.Entry.Warnf(trimNL(f), v...) }
func (l *BadgerAdapter) Infof(f string, v ...interface{})    { l.Entry.Debugf(trimNL(f), v...) }
func (l *BadgerAdapter) Debugf(f string, v ...interface{})   { l.Entry.Tracef(trimNL(f), v...) }

// MigrateAdapter implements migrate.Logger so schema migrations log through logrus
type MigrateAdapter struct {
	entry   *logrus.Entry
	verbose bool
}

// NewMigrateAdapter returns an adapter; verbose follows the entry's level
func NewMigrateAdapter(entry *logrus.Entry) *MigrateAdapter {
	return &MigrateAdapter{
		entry:   entry.WithField("component", "migrate"),
		verbose: entry.Logger.IsLevelEnabled(logrus.DebugLevel),
	}
}

func (l *MigrateAdapter) Printf(format string, v ...interface{}) {
	l.entry.Infof(trimNL(format), v...)
}

func (l *MigrateAdapter) Verbose() bool { return l.verbose }

func trimNL(f string) string { return strings.TrimRight(f, "\n") }
