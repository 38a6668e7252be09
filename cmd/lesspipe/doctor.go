package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/alnah/go-lesspipe/internal/hints"
	"github.com/alnah/go-lesspipe/internal/pipeline"
)

// versionProbeTimeout bounds "lessc --version".
const versionProbeTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Lessc    lesscInfo  `json:"lessc"`
	Node     nodeInfo   `json:"node"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// lesscInfo holds compiler detection results.
type lesscInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// nodeInfo holds Node.js detection results; lessc runs on Node.
type nodeInfo struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	LesscBin      string `json:"lesspipe_lessc"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor(env)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			LesscBin: os.Getenv("LESSPIPE_LESSC"),
		},
	}

	checkLessc(result, env)
	checkNode(result, env)
	checkEnvironment(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkLessc locates the compiler and asks it for its version.
func checkLessc(result *doctorResult, env *Environment) {
	binary := result.Env.LesscBin
	if binary == "" {
		binary = pipeline.DefaultLesscBinary
	}

	path, err := env.LookPath(binary)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("lessc not found (%s)%s", binary, hints.ForLesscNotFound()))
		return
	}
	result.Lessc.Found = true
	result.Lessc.Path = path

	ctx, cancel := context.WithTimeout(context.Background(), versionProbeTimeout)
	defer cancel()

	stdout, stderr, err := env.Runner.Run(ctx, path, "--version")
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = err.Error()
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get lessc version: %s", msg))
		return
	}
	result.Lessc.Version = strings.TrimSpace(stdout)
}

// checkNode verifies the runtime lessc depends on.
func checkNode(result *doctorResult, env *Environment) {
	path, err := env.LookPath("node")
	if err != nil {
		// A bundled lessc may not need node on PATH.
		result.Warnings = append(result.Warnings, "node not found on PATH")
		return
	}
	result.Node.Found = true
	result.Node.Path = path
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("LESSPIPE_CONTAINER") == "1" {
		return true, "LESSPIPE_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the compiler can stage inputs in the temp directory.
func checkSystem(result *doctorResult) {
	f, err := os.CreateTemp("", "lesspipe-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "lesspipe doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Compiler")
	if r.Lessc.Found {
		fmt.Fprintf(w, "  [OK] lessc found at %s\n", r.Lessc.Path)
		if r.Lessc.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Lessc.Version)
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] lessc not found")
	}
	if r.Node.Found {
		fmt.Fprintf(w, "  [OK] node found at %s\n", r.Node.Path)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.LesscBin != "" {
		fmt.Fprintf(w, "  [OK] LESSPIPE_LESSC: %s\n", r.Env.LesscBin)
	}
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to render")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
