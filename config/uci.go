package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// isUCI reports whether the first meaningful line opens a UCI section.
func isUCI(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return strings.Fields(line)[0] == "config"
	}
	return false
}

// parseUCI applies the options of the first section in data to cfg.
//
// Recognised keys: listen_http (list or option, first value wins), home,
// workers, queue_limit, index_document, not_found_document,
// sleep_document, sleep_delay, read_timeout, metrics_otlp_endpoint,
// metrics_interval and metrics_insecure. Other keys are ignored, as are
// later sections.
func parseUCI(data []byte, cfg *Config) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sections := 0
	listenSet := false

	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields, err := splitUCI(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		switch fields[0] {
		case "config":
			if len(fields) < 2 || len(fields) > 3 {
				return fmt.Errorf("line %d: config needs a type and an optional name", lineNo)
			}
			sections++
			continue
		case "option", "list":
			if len(fields) != 3 {
				return fmt.Errorf("line %d: %s needs a key and a value", lineNo, fields[0])
			}
		default:
			return fmt.Errorf("line %d: unknown keyword %q", lineNo, fields[0])
		}

		if sections == 0 {
			return fmt.Errorf("line %d: %s outside of a config section", lineNo, fields[0])
		}
		if sections > 1 {
			continue
		}

		key, value := fields[1], fields[2]
		if key == "listen_http" {
			if !listenSet {
				cfg.Listen = value
				listenSet = true
			}
			continue
		}
		if err := applyUCIOption(cfg, key, value); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := sc.Err(); err != nil {
		return err
	}
	if sections == 0 {
		return errors.New("no config section")
	}
	return nil
}

func applyUCIOption(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "home":
		if value != "" {
			cfg.DocumentRoot = value
		}
	case "workers":
		cfg.Workers, err = strconv.Atoi(value)
	case "queue_limit":
		cfg.QueueLimit, err = strconv.Atoi(value)
	case "index_document":
		cfg.IndexDocument = value
	case "not_found_document":
		cfg.NotFoundDocument = value
	case "sleep_document":
		cfg.SleepDocument = value
	case "sleep_delay":
		err = cfg.SleepDelay.set(value)
	case "read_timeout":
		err = cfg.ReadTimeout.set(value)
	case "metrics_otlp_endpoint":
		cfg.Metrics.OTLPEndpoint = value
	case "metrics_interval":
		err = cfg.Metrics.Interval.set(value)
	case "metrics_insecure":
		cfg.Metrics.Insecure, err = strconv.ParseBool(value)
	}
	if err != nil {
		return fmt.Errorf("option %s: %w", key, err)
	}
	return nil
}

// splitUCI splits a UCI line into words. Single- or double-quoted words
// may contain spaces; quotes are removed.
func splitUCI(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	var quote rune
	inWord := false

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				fields = append(fields, cur.String())
				cur.Reset()
				inWord = false
			}
		case r == '#' && !inWord:
			return fields, nil
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if inWord {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
