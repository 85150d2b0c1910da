// Package loader is the require engine: it resolves a module id to its live
// exports, synchronously when possible, otherwise as a pending result that
// settles once every asynchronous dependency has.
//
// # State machine
//
// Each module record moves Unregistered → Loading → Ready, or Loading →
// Failed. A require call on a record that is
//
//   - missing: loads the resource pots the dynamic resource map lists for it,
//     in order, then requires it again; missing afterwards is ErrModuleNotFound.
//   - Ready: returns the stored exports immediately.
//   - Failed: returns the stored *FactoryError; the factory never runs again.
//   - Loading and on the requesting chain (a cycle): returns the exports as
//     they stand, or the shared in-flight result when the factory is async.
//   - Loading and requested from elsewhere: returns the shared in-flight result.
//   - Unregistered: runs the factory.
//
// # Asynchronous modules
//
// Nothing declares a module asynchronous. A factory that returns Pending (for
// example through Module.Async) is asynchronous, and a factory that awaits such
// a module inside its own Async body becomes asynchronous too, which mirrors
// top-level-await propagation.
package loader
