// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blinklabs-io/walletview/event"
)

const (
	eventWriteTimeout = 10 * time.Second
	eventPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream carries no credentials and is read-only
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents handles GET /api/v0/events by upgrading to a websocket and
// streaming wallet events as JSON until either side goes away.
func (s *Server) handleEvents(
	w http.ResponseWriter,
	r *http.Request,
) {
	bus := s.config.EventBus
	if bus == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream not available")
		return
	}
	closing := s.closingCh()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Debug("event stream opened")

	// The client sends nothing, but reading is needed to observe close
	// frames and disconnects
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	types := event.WalletEventTypes()
	merged := make(chan event.Event, event.EventQueueSize)
	forwardDone := make(chan struct{})
	var wg sync.WaitGroup
	subIds := make([]event.EventSubscriberId, len(types))
	for i, evtType := range types {
		subId, ch := bus.Subscribe(evtType)
		subIds[i] = subId
		wg.Add(1)
		go func() {
			defer wg.Done()
			for evt := range ch {
				select {
				case merged <- evt:
				case <-forwardDone:
					return
				}
			}
		}()
	}
	defer func() {
		close(forwardDone)
		for i, evtType := range types {
			bus.Unsubscribe(evtType, subIds[i])
		}
		wg.Wait()
		logger.Debug("event stream closed")
	}()

	ping := time.NewTicker(eventPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-readDone:
			return
		case <-closing:
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(eventWriteTimeout),
			)
			return
		case <-ping.C:
			if err := conn.WriteControl(
				websocket.PingMessage,
				nil,
				time.Now().Add(eventWriteTimeout),
			); err != nil {
				return
			}
		case evt := <-merged:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := conn.WriteJSON(EventMessage{
				Type:      evt.Type,
				Timestamp: evt.Timestamp,
				Data:      evt.Data,
			}); err != nil {
				logger.Debug("event stream write failed", "error", err)
				return
			}
		}
	}
}
