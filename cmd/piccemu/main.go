// go-picc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-picc.
//
// go-picc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-picc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-picc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command piccemu answers ISO14443-A readers as an emulated DESFire card
// behind a frame-level RF front-end on a serial or SPI link.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	picc "github.com/ZaparooProject/go-picc"
	"github.com/ZaparooProject/go-picc/desfire"
	"github.com/ZaparooProject/go-picc/transport/spi"
	"github.com/ZaparooProject/go-picc/transport/uart"
	"go.bug.st/serial"
)

type config struct {
	devicePath string
	transport  string
	sessionLog string
	uid        []byte
	ats        []byte
	maxRetries int
	atqa       uint16
	noISO4     bool
	atsCRC     bool
	debug      bool
	trace      bool
	list       bool
}

// Package-level flag variables
var (
	flagDevicePath string
	flagTransport  string
	flagUID        string
	flagATQA       string
	flagSessionLog string
	flagProfile    string
	flagMaxRetries int
	flagNoISO4     bool
	flagDebug      bool
	flagTrace      bool
	flagList       bool
)

func init() {
	flag.StringVar(&flagDevicePath, "device", "", "Front-end device path (serial port or SPI port name)")
	flag.StringVar(&flagTransport, "transport", "", "Link type: uart or spi (guessed from the path if empty)")
	flag.StringVar(&flagUID, "uid", hex.EncodeToString(picc.DefaultUID), "Card UID in hex, 4 or 7 bytes")
	flag.StringVar(&flagATQA, "atqa", fmt.Sprintf("%04X", picc.DefaultATQA), "ATQA in hex")
	flag.StringVar(&flagSessionLog, "session-log", "", "Directory for a debug session log")
	flag.StringVar(&flagProfile, "profile", "", "YAML card profile (uid, atqa, ats, ats_crc, max_retries, iso14443_4)")
	flag.IntVar(&flagMaxRetries, "max-retries", picc.DefaultMaxStateRetries,
		"Unrecognized frames tolerated before a state reset")
	flag.BoolVar(&flagNoISO4, "no-iso14443-4", false, "Emulate a plain ISO14443-3 card")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
	flag.BoolVar(&flagTrace, "trace", false, "Print protocol events to stderr")
	flag.BoolVar(&flagList, "list", false, "List serial ports and exit")
}

func parseConfig() (*config, error) {
	uid, err := parseUID(flagUID)
	if err != nil {
		return nil, err
	}
	atqa, err := parseATQA(flagATQA)
	if err != nil {
		return nil, err
	}

	cfg := &config{
		devicePath: flagDevicePath,
		transport:  strings.ToLower(flagTransport),
		sessionLog: flagSessionLog,
		uid:        uid,
		atqa:       atqa,
		maxRetries: flagMaxRetries,
		noISO4:     flagNoISO4,
		debug:      flagDebug,
		trace:      flagTrace,
		list:       flagList,
	}

	if flagProfile != "" {
		p, err := loadProfile(flagProfile)
		if err != nil {
			return nil, err
		}
		if err := p.apply(cfg, explicitFlags()); err != nil {
			return nil, err
		}
	}

	// Enable debug output if --debug flag is set
	if cfg.debug {
		picc.SetDebugEnabled(true)
	}

	return cfg, nil
}

// explicitFlags returns the names of the flags given on the command line
func explicitFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

func parseUID(s string) ([]byte, error) {
	uid, err := hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid UID %q: %w", s, err)
	}
	if len(uid) != picc.UIDSizeSingle && len(uid) != picc.UIDSizeDouble {
		return nil, fmt.Errorf("invalid UID %q: %w", s, picc.ErrInvalidUID)
	}
	return uid, nil
}

func parseATQA(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid ATQA %q: %w", s, err)
	}
	return uint16(v), nil
}

// transportFor picks the link type from the flag or the device path
func transportFor(cfg *config) string {
	if cfg.transport != "" {
		return cfg.transport
	}
	if strings.Contains(strings.ToLower(cfg.devicePath), "spi") {
		return "spi"
	}
	return "uart"
}

// newLink opens the front-end link named by the configuration
func newLink(cfg *config) (picc.Link, error) {
	if cfg.devicePath == "" {
		return nil, errors.New("empty device path")
	}

	switch transportFor(cfg) {
	case "uart":
		link, err := uart.New(cfg.devicePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART link for %s: %w", cfg.devicePath, err)
		}
		return link, nil
	case "spi":
		link, err := spi.New(cfg.devicePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI link for %s: %w", cfg.devicePath, err)
		}
		return link, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", cfg.transport)
	}
}

// newCard builds the DESFire application. A 4-byte RF UID keeps the
// default 7-byte UID in the GetVersion data.
func newCard(uid []byte) (*desfire.Card, error) {
	if len(uid) == desfire.UIDSize {
		return desfire.NewWithUID(uid)
	}
	picc.Debugf("piccemu: %d-byte UID, GetVersion reports %X", len(uid), picc.DefaultUID)
	return desfire.NewWithUID(picc.DefaultUID)
}

func engineOptions(cfg *config) []picc.Option {
	opts := []picc.Option{
		picc.WithUID(cfg.uid),
		picc.WithATQA(cfg.atqa),
		picc.WithMaxStateRetries(cfg.maxRetries),
	}
	if len(cfg.ats) > 0 {
		opts = append(opts, picc.WithATS(cfg.ats))
	}
	if cfg.atsCRC {
		opts = append(opts, picc.WithATSCRC())
	}
	if cfg.noISO4 {
		opts = append(opts, picc.WithoutISO14443_4())
	}

	var loggers picc.MultiLogger
	if cfg.debug {
		loggers = append(loggers, picc.DebugLogger{})
	}
	if cfg.trace {
		loggers = append(loggers, picc.NewTraceLogger(os.Stderr))
	}
	if len(loggers) > 0 {
		opts = append(opts, picc.WithLogger(loggers))
	}
	return opts
}

func newEngine(cfg *config) (*picc.SyncEngine, error) {
	card, err := newCard(cfg.uid)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	engine, err := picc.NewSyncEngine(card, engineOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return engine, nil
}

// serve answers frames on link until ctx ends
func serve(ctx context.Context, link picc.Link, cfg *config) error {
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	serveCfg := picc.DefaultServeConfig()
	serveCfg.Port = cfg.devicePath

	_, _ = fmt.Printf("Emulating card UID=%X on %s. Press Ctrl+C to stop...\n", cfg.uid, cfg.devicePath)
	return picc.Serve(ctx, link, engine, serveCfg)
}

func listPorts() error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		_, _ = fmt.Println("No serial ports found")
		return nil
	}
	for _, port := range ports {
		_, _ = fmt.Println(port)
	}
	return nil
}

func run(ctx context.Context, cfg *config) error {
	if cfg.list {
		return listPorts()
	}

	if cfg.sessionLog != "" {
		path, err := picc.InitSessionLog(cfg.sessionLog)
		if err != nil {
			return fmt.Errorf("failed to open session log: %w", err)
		}
		_, _ = fmt.Printf("Session log: %s\n", path)
		defer func() {
			if err := picc.CloseSessionLog(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Failed to close session log: %v\n", err)
			}
		}()
	}

	link, err := newLink(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := link.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close link: %v\n", err)
		}
	}()

	return serve(ctx, link, cfg)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			// User requested shutdown, exit cleanly
			_, _ = fmt.Print("\nShutting down...\n")
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
