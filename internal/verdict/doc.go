// Package verdict turns a set of check results into a single healthy or
// unhealthy verdict and renders it as a plain-text HTTP response.
package verdict
