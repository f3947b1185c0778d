package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"rig-poser/internal/manip"
	"rig-poser/internal/mathutil"
	"rig-poser/internal/models"
	"rig-poser/internal/recorder"
	"rig-poser/internal/rigio"
	"rig-poser/internal/skeleton"
)

func main() {
	model := flag.String("model", "miku", "Model id whose profile resolves the handles")
	modelsFile := flag.String("models", "", "Path to a models.yaml profile table (default: built-in)")
	rigPath := flag.String("rig", "", "glTF rig (default: demo rig)")
	posePath := flag.String("pose", "", "pose.dat to print instead of inspecting a rig")
	verbose := flag.Bool("v", false, "Dump profile and handles")
	flag.Parse()

	dump := spew.NewDefaultConfig()
	dump.DisableCapacities = true
	dump.DisablePointerAddresses = true

	if *posePath != "" {
		pose, err := recorder.ReadPose(*posePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading pose: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("=== %s (%d bones) ===\n", *posePath, len(pose))
		for i, q := range pose {
			q = q.Normalize()
			deg := mathutil.Rad2Deg(2 * math.Acos(math.Max(-1, math.Min(1, q.W))))
			axis := mathutil.NormalizeOrZero(q.V)
			fmt.Printf("  [%3d] xyzw=(%.4f %.4f %.4f %.4f) %.1f° about (%.2f %.2f %.2f)\n",
				i, q.V[0], q.V[1], q.V[2], q.W, deg, axis[0], axis[1], axis[2])
		}
		return
	}

	table := models.Default()
	if *modelsFile != "" {
		var err error
		table, err = models.Load(*modelsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading models: %v\n", err)
			os.Exit(1)
		}
	}
	profile, err := table.Profile(models.ID(*model))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m, err := rigio.Open(*rigPath, profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rig: %v\n", err)
		os.Exit(1)
	}

	skel := m.Skeleton
	weights := m.BoneWeights()
	centers := m.BoneCenters()
	verts := 0
	for _, mesh := range m.Meshes {
		verts += len(mesh.Bind)
	}
	fmt.Printf("\n=== %s (bones=%d meshes=%d vertices=%d) ===\n", m.Name, skel.Len(), len(m.Meshes), verts)

	var walk func(id, depth int)
	walk = func(id, depth int) {
		b := skel.Bones[id]
		c := centers[id]
		fmt.Printf("  %s[%d] %s  weight=%.1f center=(%.2f %.2f %.2f)\n",
			strings.Repeat("  ", depth), id, b.Name, weights[id], c[0], c[1], c[2])
		if depth >= skeleton.MaxDepth {
			return
		}
		for _, child := range b.Children {
			walk(child, depth+1)
		}
	}
	walk(skel.Root(), 0)

	fmt.Println("--- HANDLES ---")
	handles, err := manip.NewHandles(profile.ID, skel, weights, profile.Bones)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving handles: %v\n", err)
		os.Exit(1)
	}
	for i, h := range handles {
		fmt.Printf("  [%d] %s: bone %s[%d] marker on %s[%d]\n",
			i, h.Name, skel.Bones[h.Bone].Name, h.Bone, skel.Bones[h.HandleBone].Name, h.HandleBone)
	}

	if *verbose {
		fmt.Println("--- PROFILE ---")
		dump.Dump(profile)
		fmt.Println("--- HANDLE STATE ---")
		dump.Dump(handles)
	}
}
