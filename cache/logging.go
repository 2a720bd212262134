package cache

import log "github.com/sirupsen/logrus"

// SetLogLevel parses one of panic, fatal, error, warn, info, debug, trace
// and applies it to the package-wide logrus logger every Container and
// Communicator writes through. Adapted from the teacher's own log-level
// flag handling; this package never calls flag.Parse itself, since a
// library has no business owning the process's flags.
func SetLogLevel(level string) error {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(parsed)
	return nil
}
