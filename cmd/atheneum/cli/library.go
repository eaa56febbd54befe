package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/felixgeelhaar/atheneum/internal/knowledge"
	"github.com/felixgeelhaar/atheneum/internal/store"
	"github.com/spf13/cobra"
)

var libraryMatch string

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the generated-image library",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library images, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		var imgs []store.Image
		if libraryMatch != "" {
			imgs = a.mgr.ImagesMatching(libraryMatch)
		} else {
			imgs = a.mgr.Images()
		}
		if len(imgs) == 0 {
			fmt.Println("No images yet.")
			return
		}
		for _, img := range imgs {
			when := time.UnixMilli(img.Timestamp).Format("2006-01-02 15:04")
			fmt.Printf("%4d  %s  %-20s  %s\n", img.ID, when, img.Topic, img.Prompt)
		}
	},
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete one image from the library",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Println("Image id must be a number")
			os.Exit(1)
		}

		a := newApp()
		defer a.Close()

		if err := a.mgr.DeleteImage(id); err != nil {
			fmt.Printf("Failed to delete image: %v\n", err)
			os.Exit(1)
		}
	},
}

var libraryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every image in the library",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.Close()

		if err := a.mgr.ClearCollection(knowledge.CollectionImages); err != nil {
			fmt.Printf("Failed to clear library: %v\n", err)
			os.Exit(1)
		}
	},
}

var libraryEditCmd = &cobra.Command{
	Use:   "edit [id] [instruction]",
	Short: "Generate an edited variant of a library image",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Println("Image id must be a number")
			os.Exit(1)
		}

		a := newApp()
		defer a.Close()

		var source *store.Image
		for _, img := range a.mgr.Images() {
			if img.ID == id {
				src := img
				source = &src
				break
			}
		}
		if source == nil {
			fmt.Printf("No image with id %d\n", id)
			os.Exit(1)
		}

		media, err := mediaService(a)
		if err != nil || media == nil {
			fmt.Println("No media provider available")
			os.Exit(1)
		}

		st := a.settings.Current()
		url, err := media.EditImage(context.Background(), source.ImageURL, args[1], st, st.Language)
		if err != nil {
			fmt.Printf("Edit failed: %v\n", err)
			os.Exit(1)
		}

		edited, err := a.mgr.AddImageToLibrary(store.Image{
			ImageURL: url,
			Prompt:   args[1],
			Topic:    source.Topic,
		})
		if err != nil {
			fmt.Printf("Failed to save edited image: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved edited image %d: %s\n", edited.ID, edited.ImageURL)
	},
}

func init() {
	RootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryDeleteCmd)
	libraryCmd.AddCommand(libraryClearCmd)
	libraryCmd.AddCommand(libraryEditCmd)
	libraryListCmd.Flags().StringVar(&libraryMatch, "match", "", "Only list images whose topic matches this glob pattern")
	libraryEditCmd.Flags().StringVar(&mediaType, "media", "openai", "Media provider (openai, stub)")
}
