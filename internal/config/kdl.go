package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// Load reads operational configuration from <dir>/hst.kdl, layering it
// over Default(). A missing file is not an error — the defaults stand.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, "hst.kdl")
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "bronze":
			applyBronze(cfg, n)
		case "silver":
			applySilver(cfg, n)
		case "health":
			applyHealth(cfg, n)
		case "breaker":
			applyBreaker(cfg, n)
		}
	}
	return cfg, nil
}

func applyBronze(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "source_directories":
			cfg.Bronze.SourceDirectories = collectStringArgs(cn)
		case "batch_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Bronze.BatchSize = v
			}
		case "max_file_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Bronze.MaxFileSize = int64(v)
			}
		case "parallel_workers":
			if v, ok := firstIntArg(cn); ok {
				cfg.Bronze.ParallelWorkers = v
			}
		case "checksum_verification":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Bronze.ChecksumVerification = v
			}
		case "auto_quarantine":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Bronze.AutoQuarantine = v
			}
		}
	}
}

func applySilver(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "input_batch_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Silver.InputBatchSize = v
			}
		case "parallel_workers":
			if v, ok := firstIntArg(cn); ok {
				cfg.Silver.ParallelWorkers = v
			}
		case "min_confidence_threshold":
			if v, ok := firstFloatArg(cn); ok {
				cfg.Silver.MinConfidenceThreshold = v
			}
		case "enable_fallback_extraction":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Silver.EnableFallbackExtraction = v
			}
		case "enable_data_validation":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Silver.EnableDataValidation = v
			}
		case "max_extraction_time_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Silver.MaxExtractionTimeMs = v
			}
		}
	}
}

func applyHealth(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "host":
			if v, ok := firstStringArg(cn); ok {
				cfg.Health.Host = v
			}
		case "port":
			if v, ok := firstIntArg(cn); ok {
				cfg.Health.Port = v
			}
		case "enable_cors":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Health.EnableCORS = v
			}
		case "max_request_time_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Health.MaxRequestTimeMs = v
			}
		}
	}
}

// applyBreaker reads `breaker "drive|store|file-processing" { ... }`
// blocks, one per operation class.
func applyBreaker(cfg *Config, n *document.Node) {
	target, ok := firstStringArg(n)
	if !ok {
		return
	}
	var bc *BreakerConfig
	switch target {
	case "drive":
		bc = &cfg.Drive
	case "store":
		bc = &cfg.Store
	case "file-processing":
		bc = &cfg.FileOps
	default:
		return
	}
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "failure_threshold":
			if v, ok := firstIntArg(cn); ok {
				bc.FailureThreshold = v
			}
		case "success_threshold":
			if v, ok := firstIntArg(cn); ok {
				bc.SuccessThreshold = v
			}
		case "timeout_ms":
			if v, ok := firstIntArg(cn); ok {
				bc.TimeoutMs = v
			}
		case "recovery_time_ms":
			if v, ok := firstIntArg(cn); ok {
				bc.RecoveryTimeMs = v
			}
		case "max_retries":
			if v, ok := firstIntArg(cn); ok {
				bc.MaxRetries = v
			}
		case "retry_delay_ms":
			if v, ok := firstIntArg(cn); ok {
				bc.RetryDelayMs = v
			}
		case "max_retry_delay_ms":
			if v, ok := firstIntArg(cn); ok {
				bc.MaxRetryDelayMs = v
			}
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
