// Package resource bounds the concurrency and rate of requests issued
// against blob stores.
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentRequests: 8,
//	    RequestsPerSec:        50,
//	})
//
//	if err := rc.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer rc.Release()
//
// All Controller methods are safe for concurrent use. A nil Controller does
// not limit anything.
package resource
