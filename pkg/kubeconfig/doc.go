/*
Package kubeconfig watches the kubeconfig file and reports changes.

A kubeconfig rewrite usually means the fleet itself changed: clusters
added or removed, contexts repointed, credentials rotated. Cached data
is not wrong after such a change, only possibly incomplete, so the
wired response is a refetch-all broadcast rather than a cache reset.

The watcher observes the parent directory instead of the file because
kubectl and most context-switching tools replace the file with a
temp-file rename, which would silently detach a direct file watch.
Events for the target path are debounced so one logical rewrite, which
the kernel reports as a burst of create/write/rename events, produces
a single notification.

# Usage

	w, err := kubeconfig.NewWatcher(cfg.KubeconfigPath, func() {
		transitions.TriggerRefetchAll(ctx, "")
	})
	if err != nil {
		return err
	}
	w.Start()
	defer w.Stop()

# See Also

  - pkg/modeswitch for the refetch broadcast this drives
*/
package kubeconfig
