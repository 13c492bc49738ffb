/*
package snapshot records the output of a command and checks later runs against it.

The main entry point is Manager. A Manager owns a directory of snapshot files, one
per name, each holding the combined stdout and stderr of a command as plain text.

Capture runs a command and stores its output. Verify runs it again and returns a
Comparison against the stored text. Update and Accept overwrite a snapshot. List
and Delete manage what is stored.

Names are either given explicitly or derived from the first few command tokens.
Either way a name always resolves to a single file inside the snapshot directory.
*/
package snapshot
