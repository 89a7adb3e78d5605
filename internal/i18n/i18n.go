// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n provides translations for user-facing messages. Swedish is
// the default language; English keys fall back to Swedish.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"
)

//go:embed locales
var localesFS embed.FS

// DefaultLanguage is used when no preference is known.
const DefaultLanguage = "sv"

// SupportedLanguages lists the UI languages. The first entry is the default.
var SupportedLanguages = []string{"sv", "en"}

// Message is one entry of a locale file. Message holds the English source
// text for translators; Translation is what gets shown.
type Message struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	Translation string `json:"translation"`
}

// MessageFile is the layout of locales/<lang>/messages.json.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// catalog is immutable once built. Init swaps in a new one.
type catalog struct {
	messages map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
	logger   *slog.Logger
}

var (
	active   atomic.Pointer[catalog]
	lazyLoad sync.Once
)

// Init loads all locale files. Calling it again reloads them.
func Init(logger *slog.Logger) error {
	c, err := build(logger)
	if err != nil {
		return err
	}
	active.Store(c)
	if logger != nil {
		logger.Info("i18n initialized", "languages", SupportedLanguages)
	}
	return nil
}

// get returns the active catalog, loading it on first use so packages can
// translate before Init runs.
func get() *catalog {
	if c := active.Load(); c != nil {
		return c
	}
	lazyLoad.Do(func() {
		if c, err := build(nil); err == nil {
			active.CompareAndSwap(nil, c)
		}
	})
	return active.Load()
}

func build(logger *slog.Logger) (*catalog, error) {
	c := &catalog{
		messages: make(map[string]map[string]string, len(SupportedLanguages)),
		logger:   logger,
	}
	for _, lang := range SupportedLanguages {
		file, err := readMessageFile(lang)
		if err != nil {
			return nil, err
		}
		m := make(map[string]string, len(file.Messages))
		for _, msg := range file.Messages {
			m[msg.ID] = msg.Translation
		}
		c.messages[lang] = m
		c.tags = append(c.tags, language.MustParse(lang))
		if logger != nil {
			logger.Debug("loaded translations", "language", lang, "count", len(m))
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

func readMessageFile(lang string) (MessageFile, error) {
	var file MessageFile
	path := "locales/" + lang + "/messages.json"
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("failed to load language %s: %w", lang, err)
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return file, nil
}

// lookup finds key in lang, then in the default language.
func (c *catalog) lookup(lang, key string) (string, bool) {
	if s, ok := c.messages[lang][key]; ok {
		return s, true
	}
	s, ok := c.messages[DefaultLanguage][key]
	if ok && lang != DefaultLanguage && c.logger != nil {
		c.logger.Debug("missing translation, using default", "key", key, "lang", lang)
	}
	return s, ok
}

// T translates key into lang and formats it with args. Unknown keys are
// returned unchanged.
func T(lang, key string, args ...any) string {
	c := get()
	if c == nil {
		return key
	}
	s, ok := c.lookup(lang, key)
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(s, args...)
	}
	return s
}

// GetSupportedLanguages returns the supported UI languages.
func GetSupportedLanguages() []string {
	return slices.Clone(SupportedLanguages)
}

// MatchLanguage picks the best supported language for an Accept-Language
// header or a single language code.
func MatchLanguage(acceptLang string) string {
	c := get()
	if c == nil {
		return DefaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		tag, err := language.Parse(acceptLang)
		if err != nil {
			return DefaultLanguage
		}
		tags = []language.Tag{tag}
	}

	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(SupportedLanguages) {
		return DefaultLanguage
	}
	return SupportedLanguages[idx]
}

// IsSupported reports whether lang is a supported language code.
func IsSupported(lang string) bool {
	return slices.Contains(SupportedLanguages, strings.ToLower(lang))
}

// TranslationCount returns the number of keys loaded for lang.
func TranslationCount(lang string) int {
	c := get()
	if c == nil {
		return 0
	}
	return len(c.messages[lang])
}

// Keys returns the sorted message keys for lang.
func Keys(lang string) []string {
	c := get()
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.messages[lang]))
	for k := range c.messages[lang] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
