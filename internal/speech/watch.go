// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a voice change is reported.
const DefaultDebounce = 500 * time.Millisecond

// ErrNoVoiceDirs is returned when none of the voice directories exist.
var ErrNoVoiceDirs = errors.New("no voice directory to watch")

// VoiceWatcher reports changes to voice directories. Bursts of events, like
// a package manager unpacking a voice, are collapsed into one notification.
type VoiceWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	changes  chan struct{}

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewVoiceWatcher starts watching the existing directories among dirs.
func NewVoiceWatcher(dirs []string, debounce time.Duration) (*VoiceWatcher, error) {
	dirs = existingDirs(dirs)
	if len(dirs) == 0 {
		return nil, ErrNoVoiceDirs
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			log.Printf("[speech] cannot watch %s: %v", d, err)
		}
	}
	if len(watcher.WatchList()) == 0 {
		watcher.Close()
		return nil, ErrNoVoiceDirs
	}

	ctx, cancel := context.WithCancel(context.Background())
	vw := &VoiceWatcher{
		watcher:  watcher,
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}

	vw.wg.Add(2)
	go vw.processEvents()
	go vw.processPending()
	return vw, nil
}

// Changes returns the notification channel. It holds at most one pending
// notification.
func (vw *VoiceWatcher) Changes() <-chan struct{} {
	return vw.changes
}

func (vw *VoiceWatcher) processEvents() {
	defer vw.wg.Done()
	for {
		select {
		case <-vw.ctx.Done():
			return

		case event, ok := <-vw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			vw.mu.Lock()
			vw.pending = time.Now()
			vw.mu.Unlock()

		case err, ok := <-vw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[speech] voice watch error: %v", err)
		}
	}
}

func (vw *VoiceWatcher) processPending() {
	defer vw.wg.Done()
	tick := vw.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-vw.ctx.Done():
			return

		case <-ticker.C:
			vw.mu.Lock()
			fire := !vw.pending.IsZero() && time.Since(vw.pending) >= vw.debounce
			if fire {
				vw.pending = time.Time{}
			}
			vw.mu.Unlock()

			if fire {
				select {
				case vw.changes <- struct{}{}:
				default:
				}
			}
		}
	}
}

// Close stops watching and releases resources.
func (vw *VoiceWatcher) Close() error {
	vw.cancel()
	err := vw.watcher.Close()
	vw.wg.Wait()
	return err
}
