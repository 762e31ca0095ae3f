// Package config loads the show runtime configuration.
//
// Load reads a YAML file over built-in defaults, applies GRAYSHOW_*
// environment overrides and validates the result. Besides the ambient
// sections (database, mqtt, influxdb, api, logging, security) the file
// describes the rig:
//
//	output:
//	  jitter_threshold_ms: 10
//	  stop_timeout_ms: 4000
//	controllers:
//	  - name: stage
//	    outputs: 24
//	    data_policy: intensity8
//	    module: {type: artnet, target: "10.0.0.50:6454", universe: 1}
//	    patches:
//	      - output: 0
//	        channels: ["6f1c0d1e-3b7a-4c55-9a53-2d0f5e8c1a11"]
//	        filters: [{type: invert}]
//	  - name: stage-b
//	    outputs: 24
//	    data_policy: intensity8
//	    chain_after: stage
//
// Validation checks controller names, chain references, patch targets and
// module parameters so the rig builder only sees well-formed input.
//
// Secrets (JWT secret, MQTT password, InfluxDB token) should come from the
// environment rather than the file.
package config
