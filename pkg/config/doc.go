/*
Package config loads the daemon configuration.

Configuration is a single YAML file layered over built-in defaults.
The interesting part is the family catalog: each entry is a
types.Family policy block controlling how one class of resource is
fetched, cached, deduped, sorted, persisted and polled. Omitting the
catalog gives the built-in fleet dashboard set (clusters, pods,
deployments, gpu-nodes, operators, security-issues, gitops-drift).

	listenAddr: ":8090"
	dataDir: /var/lib/fleetglass
	agentUrl: http://localhost:9180
	apiUrl: https://fleet-api.internal
	kubeconfigPath: /home/op/.kube/config
	log:
	  level: debug
	  json: true
	families:
	  - name: pods
	    required: true
	    retry: true
	    persist: true
	    sort: restarts-desc
	  - name: gpu-nodes
	    dedupe_by_name: true
	    poll_interval: 15s

Families declared in the file replace the default catalog entirely;
defaults for the per-family timeout and poll budgets are still filled
in per entry. Load validates everything up front so a bad file fails
at startup rather than at first fetch.

# See Also

  - pkg/types for the Family policy fields
  - cmd/fleetglass for the --config flag wiring
*/
package config
