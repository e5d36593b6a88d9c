package config

import (
	"context"
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads settings whenever the settings file changes and hands the
// fresh copy to onChange. It blocks until ctx is cancelled. With no settings
// file there is nothing to watch and Watch returns immediately.
func Watch(ctx context.Context, onChange func(*Settings)) error {
	envPath := ResolveEnvPath()
	if envPath == "" {
		log.Printf("Config: no settings file, watcher disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(envPath); err != nil {
		return err
	}
	log.Printf("Config: watching %s", envPath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load()
			if err != nil {
				log.Printf("Config: reload failed, keeping previous settings: %v", err)
				continue
			}
			log.Printf("Config: settings reloaded")
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Config: watch error: %v", err)
		}
	}
}
