/*
	The 'manifest' package reads script sets from files.

	Two kinds of manifest are understood:
	starlark files (".star", ".sky", ".fx"), which declare scripts by calling a `script` builtin,
	and YAML files (".yaml", ".yml", ".json"; JSON being a subset of YAML),
	which list them under a top-level `scripts` key.

	Either way, what comes out is a []script.Script in declaration order,
	ready to be handed to the resolver.
	Manifests don't resolve anything themselves:
	dependencies on undeclared ids are passed through as-is.
*/
package manifest
