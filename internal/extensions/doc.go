// Package extensions provides the built-in plugins. Each plugin is a named
// set of advice hooks; a catalog opts in by listing the plugin name under
// "plugins", or the runtime applies it to every catalog through the
// plugins.default setting.
//
// Priorities are spread so the plugins compose predictably: log and
// metrics sit outermost, throttle and deadline next, memorise innermost so
// it caches what the loader itself produced.
package extensions
