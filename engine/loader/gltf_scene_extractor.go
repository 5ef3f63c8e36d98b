package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/engine/model"
)

// defaultRootName names the synthetic root when the document's scene has no name.
const defaultRootName = "RootNode"

// gltfSceneExtractorImpl is the implementation of the gltfSceneExtractor interface.
type gltfSceneExtractorImpl struct {
	parser gltfParser
}

// gltfSceneExtractor converts the glTF node hierarchy into a model.SceneNode tree.
type gltfSceneExtractor interface {
	// ExtractScene builds the scene tree of the default scene under a synthetic root.
	// The root is named after the scene, or RootNode when the scene is unnamed, and its
	// children are the scene's root nodes in document order. Every glTF node maps to
	// exactly one SceneNode, so a malformed document whose children form a cycle yields
	// a cyclic tree that the skeleton builder rejects.
	//
	// Returns:
	//   - *model.SceneNode: the synthetic root
	//   - error: error if a node or child index is out of range
	ExtractScene() (*model.SceneNode, error)
}

var _ gltfSceneExtractor = &gltfSceneExtractorImpl{}

func newGLTFSceneExtractor(parser gltfParser) gltfSceneExtractor {
	return &gltfSceneExtractorImpl{parser: parser}
}

func (e *gltfSceneExtractorImpl) ExtractScene() (*model.SceneNode, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	nodes := make([]*model.SceneNode, len(doc.Nodes))
	for i := range doc.Nodes {
		nodes[i] = &model.SceneNode{Name: gltfNodeName(doc, i)}
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(nodes) {
				return nil, fmt.Errorf("node %d: child index %d out of range", i, c)
			}
			nodes[i].Children = append(nodes[i].Children, nodes[c])
		}
	}

	root := &model.SceneNode{Name: defaultRootName}
	roots, name := gltfSceneRoots(doc)
	if name != "" {
		root.Name = name
	}
	for _, r := range roots {
		if r < 0 || r >= len(nodes) {
			return nil, fmt.Errorf("scene root index %d out of range", r)
		}
		root.Children = append(root.Children, nodes[r])
	}
	return root, nil
}

// gltfNodeName returns the node's name, or node_<index> when it is empty. Skin joints use
// the same naming so unnamed joints still match their scene node.
func gltfNodeName(doc *gltfDocument, index int) string {
	if name := doc.Nodes[index].Name; name != "" {
		return name
	}
	return fmt.Sprintf("node_%d", index)
}

// gltfSceneRoots returns the root nodes and name of the default scene. Documents without
// scenes fall back to every node that is nobody's child.
func gltfSceneRoots(doc *gltfDocument) ([]int, string) {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes, doc.Scenes[idx].Name
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, ""
}
