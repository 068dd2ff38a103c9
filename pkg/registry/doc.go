// Package registry holds process-wide configuration for record caches:
// the class table, the eviction grace period, and journal wiring.
//
// # Configuration
//
// A registry is usually built from a YAML file:
//
//	grace_period: 5m
//	journal:
//	  path: records.rlog
//	  stdout: true
//	classes:
//	  user:
//	    description: Application users
//	    defaults:
//	      active: true
//	  todo:
//	    description: Todo items
//
// Load it and build a cache:
//
//	config, err := registry.LoadConfig("resourcerer.yaml")
//	if err != nil {
//		return err
//	}
//	reg, err := registry.NewRegistry(config)
//	if err != nil {
//		return err
//	}
//	defer reg.Close()
//
//	c := reg.NewCache()
//
// Caches built this way journal every record event, apply class
// defaults to new records, and report lifecycle transitions to the
// registry's Tracker.
//
// The core packages (broadcast, record) read none of this; only the
// cache layer is wired through the registry.
package registry
