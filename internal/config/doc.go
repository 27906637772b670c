// Package config loads the runtime configuration of an ssrkit server.
//
// Values are resolved in order: defaults, ssrkit.yaml, then the
// environment variables of the selected mode.
//
//	mode          host var          port var          default port
//	browser-dev   BROWSER_HOST      BROWSER_PORT      8080
//	server-dev    SERVER_DEV_HOST   SERVER_DEV_PORT   8081
//	server-prod   HOST              PORT              4000
//
// SSL_PORT starts an HTTPS listener in every mode.
//
// # Configuration File Structure
//
//	mode: server-prod
//	ssl_port: 8443
//	tls:
//	  cert_file: certs/server.crt
//	  key_file: certs/server.key
//	  force_ssl: true
//	dist: dist
//	static:
//	  s3:
//	    bucket: my-assets
//	    region: eu-west-1
//	graphql:
//	  endpoint: /graphql
//	metrics:
//	  enabled: true
//	dev:
//	  watch: [dist, public]
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    return err
//	}
//	cfg.Mode = config.ModeServerProd
//	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	fmt.Println("Listening on", cfg.URL(true))
package config
