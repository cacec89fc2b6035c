// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package signature

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher - background process reloading system keys when new key
// files appear in the key directory
type Watcher struct {
	keyring   *Keyring
	directory string
	watcher   *fsnotify.Watcher
}

// NewWatcher - watch a key directory for rotated system keys
func (k *Keyring) NewWatcher(directory string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}

	directory, err = filepath.Abs(filepath.Clean(directory))
	if nil != err {
		watcher.Close()
		return nil, err
	}

	if err := watcher.Add(directory); nil != err {
		watcher.Close()
		return nil, err
	}

	return &Watcher{
		keyring:   k,
		directory: directory,
		watcher:   watcher,
	}, nil
}

// Run - background process loop
func (w *Watcher) Run(args interface{}, shutdown <-chan struct{}) {
	log := w.keyring.log
	log.Infof("watching key directory: %q", w.directory)

	defer w.watcher.Close()

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-w.watcher.Events:
			if !ok {
				break loop
			}
			if 0 == event.Op&(fsnotify.Create|fsnotify.Write) {
				continue loop
			}
			loaded, err := w.keyring.loadFile(event.Name)
			if nil != err {
				// a partially written file is retried on its next write event
				log.Warnf("key file: %q  error: %s", event.Name, err)
			} else if loaded {
				log.Infof("key file loaded: %q", event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watcher error: %s", err)
		}
	}
	log.Info("key watcher stopped")
}
