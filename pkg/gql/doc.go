// Package gql is the GraphQL bridge between views and data.
//
// A Client runs operations through a Transport and caches the results so
// that a second render pass finds the data it asked for during the first.
// Two transports are provided:
//
//   - LocalTransport executes against an in-process graphql-go schema with
//     the request's context, so resolvers can read cookies and headers.
//   - RemoteTransport posts JSON to an HTTP endpoint, running request
//     middleware and response afterware in registration order.
//
// The cache is part of the serialized state sent to the browser: Client
// implements ExtractState and RestoreState for the store's reserved slice.
//
// Handler and GraphiQL serve the in-process schema over HTTP.
package gql
