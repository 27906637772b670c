package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "The configuration file passed with --config does not exist. Without --config, ssrkit.yaml is optional.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The configuration file is not valid YAML or contains fields of the wrong type.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Unknown mode",
		Detail:   "The mode selects host/port environment variables and asset resolution. Valid modes are browser-dev, server-dev and server-prod.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Ports must be integers between 1 and 65535.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Incomplete TLS configuration",
		Detail:   "HTTPS needs both a certificate file and a key file.",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "TLS file not found",
		Detail:   "The certificate or key file configured for HTTPS does not exist.",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "HTTP disabled without HTTPS",
		Detail:   "disable_http turns off the plain listener, so an HTTPS listener must be configured or the server would accept no connections.",
	},
	"E107": {
		Category: CategoryConfig,
		Message:  "Invalid static source",
		Detail:   "The S3 static source needs a bucket and a region.",
	},

	// ============================================
	// Asset Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryAssets,
		Message:  "Asset manifest not found",
		Detail:   "Production mode reads manifest.json and chunk-manifest.json from the dist directory. Build the browser bundle before starting the server.",
	},
	"E121": {
		Category: CategoryAssets,
		Message:  "Asset manifest incomplete",
		Detail:   "The manifest has no entry for one of the files every page references.",
	},

	// ============================================
	// Server Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryServer,
		Message:  "Port already in use",
		Detail:   "Another process is listening on the configured port.",
	},
	"E131": {
		Category: CategoryServer,
		Message:  "Server failed",
		Detail:   "A listener stopped with an error.",
	},

	// ============================================
	// Runtime Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryRuntime,
		Message:  "Render did not converge",
		Detail:   "Each render pass discovered new data dependencies until the pass limit was reached.",
	},
	"E141": {
		Category: CategoryRuntime,
		Message:  "Reserved reducer name",
		Detail:   "The store keeps the GraphQL cache under the name gql. A reducer with the same name would overwrite it.",
	},

	// ============================================
	// CLI Errors (E150-E159)
	// ============================================

	"E150": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
		Detail:   "A command line flag has a value the command cannot use.",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
