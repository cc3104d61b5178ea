/*
Package resolver routes handle resolution to the remote repository which owns each handle's prefix.

The two main pieces are a Registry, an immutable prefix-to-endpoint mapping built by LoadRegistry from the configured repository endpoints, and a Resolver, which holds the current Registry and answers resolve, list, and naming-authority questions against it. Handles whose prefix is not in the registry are rejected without any network request.
*/
package resolver
