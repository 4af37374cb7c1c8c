// Package attachment builds prompt attachments.
//
// A URL attachment is picked by the user inside an element-selector app that
// runs in an iframe. The app talks to the editor via postMessage; Dialog
// models the editor side of that channel: it checks every message against
// the iframe origin, turns "attach" messages into url attachments and
// reports a load timeout when the app never announces itself.
package attachment
