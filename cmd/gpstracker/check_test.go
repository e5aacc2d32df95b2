package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shaunagostinho/gps-tracker/internal/config"
)

func TestReportCheckListsEveryProblem(t *testing.T) {
	_, err := config.Parse([]byte("server_url: not a url\nserver_port: 0\n"))

	var out bytes.Buffer
	if rerr := reportCheck(&out, nil, err); rerr == nil {
		t.Fatal("expected a non-nil error for an invalid config")
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// ap_ssid, gprs_apn, server_url, server_port
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[2], "MalformedURL") || !strings.HasPrefix(lines[3], "InvalidRange") {
		t.Errorf("unexpected report:\n%s", out.String())
	}
}

func TestReportCheckOK(t *testing.T) {
	cfg, err := config.Parse(config.Template())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := reportCheck(&out, cfg, nil); err != nil {
		t.Fatal(err)
	}
	if want := "server=http://yourserver.com:80/api/gps"; !strings.Contains(out.String(), want) {
		t.Errorf("output %q lacks %q", out.String(), want)
	}
}

func TestTemplateCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"template"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Parse(out.Bytes()); err != nil {
		t.Errorf("template output does not load: %v", err)
	}
}
