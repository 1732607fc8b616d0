package persistence

import "github.com/GriffinCanCode/filedeck/internal/domain/tree"

const welcomeText = "Welcome to FileDeck!\n\n" +
	"Double-click a folder to open it. Select files to rename, move, zip or delete them.\n" +
	"Use Share to copy a link that carries this whole tree.\n"

// DefaultTree is the starting tree when nothing has been saved: an empty
// "My Documents" folder and "welcome.txt", both at the root.
func DefaultTree() []tree.Node {
	return []tree.Node{
		tree.NewFolder(1, "My Documents"),
		tree.NewFile(2, "welcome.txt", tree.TextPayload(welcomeText)),
	}
}
